package filter

/*
Here the Env used in the relay target filters is defined.
Once this struct is fixed, it should not be changed, otherwise filters
carried on older envelopes may not compile any more (f.e. if properties are
renamed etc.)
*/

type Profile struct {
	Name        string
	Avatar      string
	CurrentRoom string
	Email       string
}

type Source struct {
	ConnectionId string
	Profile
}

type Target struct {
	ConnectionId string
	Profile
}

type Env struct {
	RoomId string
	Source Source
	Target Target
	Key    string
}
