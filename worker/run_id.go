package worker

import (
	"strings"

	"github.com/google/uuid"
)

// generateRunID returns a run identifier for a StartWorkflow request that
// arrived with no run id of its own. It is prefixed with a normalized
// workflow id to keep run ids readable in logs and traces without
// sacrificing uniqueness across restarts.
func generateRunID(workflowID string) string {
	prefix := strings.ReplaceAll(workflowID, " ", "-")
	if prefix == "" {
		return uuid.NewString()
	}
	return prefix + "-" + uuid.NewString()
}
