package board

// command is a reversible local mutation: apply the tentative state change,
// attempt the remote commit, run the inverse patch on rejection. Every
// persisted slice goes through this instead of ad hoc rollback code.
type command struct {
	apply  func()
	revert func()
}

// runOptimistic runs the two-phase local transaction. On commit failure the
// state change is reverted and the error is surfaced via the state's error
// message.
func (m *Machine) runOptimistic(cmd command, commit func() error) error {
	cmd.apply()
	if err := commit(); err != nil {
		cmd.revert()
		m.state.ErrorMessage = err.Error()
		return err
	}
	return nil
}
