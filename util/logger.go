package util

import (
	"log"

	"github.com/coreos/go-systemd/v22/journal"
)

type journalWriter struct{}

func (journalWriter) Write(p []byte) (int, error) {
	if err := journal.Send(string(p), journal.PriInfo, nil); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SetupLogging redirects the standard logger to systemd-journald when
// configured and journald is available on this host.
func SetupLogging(conf *AppConfig) {
	if !conf.Conf.WithJournald {
		return
	}
	if !journal.Enabled() {
		log.Printf("withJournald is set but journald is not available, keeping stderr logging")
		return
	}
	// Journald records its own timestamps.
	log.SetFlags(0)
	log.SetOutput(journalWriter{})
}
