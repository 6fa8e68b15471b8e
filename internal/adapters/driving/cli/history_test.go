package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelf/internal/core/domain"
)

func runTestSearch(t *testing.T, query string) *domain.QueryRecord {
	t.Helper()
	record, _, err := searchService.Search(context.Background(), domain.SearchRequest{
		Query:  query,
		UserID: currentUser(),
	})
	require.NoError(t, err)
	return record
}

func TestHistoryCmd_HasSubcommands(t *testing.T) {
	commands := historyCmd.Commands()
	commandNames := make([]string, 0, len(commands))
	for _, cmd := range commands {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.Contains(t, commandNames, "list")
	assert.Contains(t, commandNames, "show")
	assert.Contains(t, commandNames, "delete")
}

func TestHistoryListCmd(t *testing.T) {
	cleanup := setupTestServices(t, searchLibrary)
	defer cleanup()

	_, err := execute(t, "scan")
	require.NoError(t, err)

	first := runTestSearch(t, "quick")
	second := runTestSearch(t, "lazy")

	out, err := execute(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, first.ID)
	assert.Contains(t, out, second.ID)
	assert.Contains(t, out, "2 result(s)")
	assert.Contains(t, out, "1 result(s)")

	out, err = execute(t, "history", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, second.ID)
	assert.NotContains(t, out, first.ID)
}

func TestHistoryShowCmd(t *testing.T) {
	cleanup := setupTestServices(t, searchLibrary)
	defer cleanup()

	_, err := execute(t, "scan")
	require.NoError(t, err)
	record := runTestSearch(t, "quick")

	out, err := execute(t, "history", "show", record.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Searched ")
	assert.Contains(t, out, `2 result(s) for "quick"`)
	assert.Contains(t, out, "[1] quick")
}

func TestHistoryShowCmd_OtherUser(t *testing.T) {
	cleanup := setupTestServices(t, searchLibrary)
	defer cleanup()

	_, err := execute(t, "scan")
	require.NoError(t, err)
	record := runTestSearch(t, "quick")

	_, err = execute(t, "--user", "mallory", "history", "show", record.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistoryDeleteCmd(t *testing.T) {
	cleanup := setupTestServices(t, searchLibrary)
	defer cleanup()

	_, err := execute(t, "scan")
	require.NoError(t, err)
	record := runTestSearch(t, "quick")

	out, err := execute(t, "history", "delete", record.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted search "+record.ID)

	_, err = execute(t, "history", "show", record.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistoryDeleteCmd_RequiresID(t *testing.T) {
	_, err := execute(t, "history", "delete")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}
