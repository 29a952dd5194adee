package services

import (
	portsrepo "github.com/SscSPs/ledger-posting/internal/core/ports/repositories"
)

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Posting   PostingSvcFacade
	Reporting ReportingService

	// JournalQuery is the query collaborator handed to reporting operations.
	JournalQuery portsrepo.PostedJournalReader
}
