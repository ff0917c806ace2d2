package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/jsphweid/midicom/constants"
	"github.com/jsphweid/midicom/midi"
	"github.com/jsphweid/midicom/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(libraryCmd)
}

var libraryCmd = &cobra.Command{
	Use:   "library [max]",
	Short: "Lists the sample midi library",
	Long:  `Lists the midi files under MIDI_PATH with their track and note counts`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var maxNum int
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			maxNum = n
		}
		return listLibrary(maxNum)
	},
}

func listLibrary(maxNum int) error {
	dir := constants.GetMidiDir()
	paths, err := util.GatherAllMidiPaths(dir, maxNum)
	if err != nil {
		return err
	}
	for i, path := range paths {
		rel, _ := filepath.Rel(dir, path)
		tl, err := midi.ReadTimelineFile(path)
		if err != nil {
			logrus.WithField("path", path).WithError(err).Warn("skipping")
			continue
		}
		fmt.Printf("%d\t%s\t%d tracks\t%d notes\t%.2f bpm\t%.1fs\n",
			i+1, rel, len(tl.Tracks), tl.NoteCount(), tl.BPM, tl.Duration)
	}
	return nil
}
