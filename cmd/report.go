package cmd

import (
	"fmt"

	"github.com/jsphweid/midicom/constants"
	"github.com/jsphweid/midicom/model"
	"github.com/jsphweid/midicom/store"
	"github.com/jsphweid/midicom/util"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarises stored transcriptions",
	Long:  `Summarises the transcription jobs stored under OUTPUT_PATH`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, err := store.NewFileMetadataStore(constants.GetOutputDir()).ListJobs()
		if err != nil {
			return err
		}
		r := summarise(jobs)
		fmt.Printf("jobs: %v\n", r.numJobs)
		fmt.Printf("stems: %v (%v without notes)\n", r.numStems, r.failedStems)
		fmt.Printf("notes: %v\n", util.Sum(r.notesPerJob))
		fmt.Printf("notes per job: %v\n", r.notesPerJob)
		return nil
	},
}

type jobsReport struct {
	numJobs     int
	numStems    int
	failedStems int
	notesPerJob []uint32
}

func summarise(jobs []model.JobMetadata) jobsReport {
	var r jobsReport
	r.numJobs = len(jobs)
	for _, job := range jobs {
		r.numStems += len(job.Stems)
		for _, name := range util.GetSortedKeys(job.Details) {
			if !job.Details[name].Success {
				r.failedStems++
			}
		}
		r.notesPerJob = append(r.notesPerJob, uint32(job.TotalNotes))
	}
	return r
}
