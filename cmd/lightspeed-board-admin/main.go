package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tcriess/lightspeed-board/config"
	"github.com/tcriess/lightspeed-board/globals"
	"github.com/tcriess/lightspeed-board/persistence"
	"github.com/tcriess/lightspeed-board/types"
)

// A very simple CLI tool for the administration of lightspeed-board rooms
// and pinned items.

var (
	configPath = pflag.StringP("config", "c", "", "path to config file or directory")
)

func main() {
	log.SetFlags(0)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		<-c
		log.Fatal("interrupted!")
	}()

	flagSet := config.GetFlagSet()
	pflag.CommandLine.AddFlagSet(flagSet)

	pflag.Parse()

	globalConfig, err := config.ReadConfiguration(*configPath, flagSet)
	if err != nil {
		panic(err)
	}

	globals.AppLogger.SetLevel(hclog.LevelFromString(globalConfig.LogLevel))

	persister, err := persistence.NewPersister(globalConfig)
	if err != nil {
		panic(err)
	}
	if persister == nil {
		panic("no persistence configured")
	}
	defer persister.Close()

	var cmdShow = &cobra.Command{
		Use:   "show",
		Short: "Show rooms or pinned items",
		Long:  `show is for printing room or pinned item information.`,
		Args:  cobra.MinimumNArgs(0),
	}
	var cmdShowRooms = &cobra.Command{
		Use:   "rooms",
		Short: "Show rooms",
		Long:  `show rooms lists all available rooms.`,
		Args:  cobra.MinimumNArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			rooms, err := persister.GetRooms()
			if err != nil {
				globals.AppLogger.Error("could not get rooms", "error", err)
				return
			}
			r, err := json.Marshal(rooms)
			if err != nil {
				globals.AppLogger.Error("could not marshal rooms", "error", err)
				return
			}
			fmt.Println(string(r))
		},
	}
	var cmdShowRoom = &cobra.Command{
		Use:   "room [room id]",
		Short: "Show room",
		Long:  `show room prints detail information about the room with the given id.`,
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			room := types.Room{Id: args[0]}
			err := persister.GetRoom(&room)
			if err != nil {
				globals.AppLogger.Error("could not get room", "error", err)
				return
			}
			r, err := json.Marshal(room)
			if err != nil {
				globals.AppLogger.Error("could not marshal room", "error", err)
				return
			}
			fmt.Println(string(r))
		},
	}
	var cmdShowPins = &cobra.Command{
		Use:   "pins [room id]",
		Short: "Show pinned items",
		Long:  `show pins lists all pinned items of the room with the given id.`,
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			items, err := persister.GetPinnedItems(args[0])
			if err != nil {
				globals.AppLogger.Error("could not get pinned items", "error", err)
				return
			}
			i, err := json.Marshal(items)
			if err != nil {
				globals.AppLogger.Error("could not marshal pinned items", "error", err)
				return
			}
			fmt.Println(string(i))
		},
	}
	var cmdSet = &cobra.Command{
		Use:   "set",
		Short: "create/update a room",
		Long:  `set creates or updates a room.`,
		Args:  cobra.MinimumNArgs(0),
	}
	var cmdSetRoom = &cobra.Command{
		Use:   "room [room definition]",
		Short: "Set room",
		Long:  `set room creates or updates a room. If the room definition is "-", the definition is read from STDIN.`,
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var r io.Reader
			if args[0] == "-" {
				r = os.Stdin
			} else {
				r = bytes.NewReader([]byte(args[0]))
			}
			dec := json.NewDecoder(r)
			room := types.Room{}
			err := dec.Decode(&room)
			if err != nil {
				globals.AppLogger.Error("could not decode room", "error", err)
				return
			}
			globals.AppLogger.Info("got room", "room", room)
			if room.Id == "" {
				globals.AppLogger.Error("no room id")
				return
			}
			if room.IsLocked && room.LockedOwnerAddress == "" {
				globals.AppLogger.Warn("room is locked but no owner address set")
			}
			err = persister.StoreRoom(room)
			if err != nil {
				globals.AppLogger.Error("could not store room", "error", err)
				return
			}
		},
	}
	var cmdDelete = &cobra.Command{
		Use:   "delete",
		Short: "delete a pinned item",
		Long:  `delete removes a pinned item from a room.`,
		Args:  cobra.MinimumNArgs(0),
	}
	var cmdDeletePin = &cobra.Command{
		Use:   "pin [room id] [item key]",
		Short: "Delete pinned item",
		Long:  `delete pin removes the pinned item with the given key from the given room.`,
		Args:  cobra.MinimumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			err := persister.DeletePinnedItem(args[0], args[1])
			if err != nil {
				globals.AppLogger.Error("could not delete pinned item", "error", err)
				return
			}
		},
	}

	var rootCmd = &cobra.Command{Use: "lightspeed-board-admin"}
	rootCmd.AddCommand(cmdShow, cmdSet, cmdDelete)
	cmdShow.AddCommand(cmdShowRooms, cmdShowRoom, cmdShowPins)
	cmdSet.AddCommand(cmdSetRoom)
	cmdDelete.AddCommand(cmdDeletePin)
	if err := rootCmd.Execute(); err != nil {
		globals.AppLogger.Error("could not execute command", "error", err)
	}
}
