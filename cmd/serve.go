package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jsphweid/midicom/constants"
	"github.com/jsphweid/midicom/db"
	"github.com/jsphweid/midicom/file"
	"github.com/jsphweid/midicom/store"
	"github.com/jsphweid/midicom/transcribe"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var servePort int

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default MIDICOM_PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the HTTP API",
	Long:  `Serves transcription, midi parsing and the sample midi library over HTTP`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := servePort
		if port == 0 {
			port = constants.GetPort()
		}
		return serve(port)
	},
}

// LoadServer wires a Server from the environment.
func LoadServer() (*Server, error) {
	var meta store.MetadataStore
	if endpoint := constants.GetDynamoEndpoint(); endpoint != "" {
		table, err := db.NewJobTable(endpoint, constants.GetDynamoTable())
		if err != nil {
			return nil, err
		}
		meta = table
		logrus.WithFields(logrus.Fields{"endpoint": endpoint, "table": constants.GetDynamoTable()}).Info("job metadata in DynamoDB")
	}

	s, err := store.New(constants.GetOutputDir(), meta)
	if err != nil {
		return nil, err
	}
	library, err := file.NewLibrary(constants.GetMidiDir(), 500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	cfg := transcribe.DefaultConfig()
	cfg.MinNoteDuration = constants.GetMinNoteDuration()
	cfg.QuantizeMs = constants.GetQuantizeMs()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return NewServer(library, s, ServerConfig{
		Transcribe:     cfg,
		Workers:        constants.GetWorkers(),
		AllowedOrigins: constants.GetAllowedOrigins(),
	}), nil
}

func serve(port int) error {
	server, err := LoadServer()
	if err != nil {
		return err
	}
	addr := fmt.Sprintf(":%d", port)
	logrus.WithFields(logrus.Fields{
		"addr":    addr,
		"library": constants.GetMidiDir(),
		"output":  constants.GetOutputDir(),
	}).Info("midicom listening")
	return http.ListenAndServe(addr, server.Router())
}
