package cmd

import (
	"github.com/jsphweid/midicom/constants"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "midicom",
	Short: "Music to midi note timelines",
	Long:  `midicom turns onset and pitch analysis of audio stems into midi note timelines, reads midi files back into timelines and serves both over HTTP.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logrus.SetLevel(constants.GetLogLevel())
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	},
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
