package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cogpipe/core/pkg/types"
)

func TestDetect_FileRead(t *testing.T) {
	c := NewClassifier()
	got := c.Detect("Read /tmp/a.txt")
	assert.Equal(t, types.IntentFileRead, got.Category)
	assert.Contains(t, got.Entities[types.EntityFilePaths], "/tmp/a.txt")
}

func TestDetect_Unknown(t *testing.T) {
	c := NewClassifier()
	got := c.Detect("xyz qux zorp blah")
	assert.Equal(t, types.IntentUnknown, got.Category)
	assert.Equal(t, 0.5, got.Confidence)
	assert.False(t, got.MultiIntent)
}

func TestDetect_GithubQueryExtractsHandle(t *testing.T) {
	c := NewClassifier()
	got := c.Detect("Check the latest issue from @octocat on github")
	assert.Equal(t, types.IntentGithubQuery, got.Category)
	assert.Contains(t, got.Entities[types.EntityGithubUsers], "@octocat")
}

func TestExtractEntities_URLsPathsExtensionsPackages(t *testing.T) {
	entities := ExtractEntities("Fetch https://example.com/data and save it to report.json, also check @scope/pkg-name")
	assert.Contains(t, entities[types.EntityURLs], "https://example.com/data")
	assert.Contains(t, entities[types.EntityFilePaths], "report.json")
	assert.Contains(t, entities[types.EntityFileExtensions], "json")
	assert.Contains(t, entities[types.EntityPackages], "@scope/pkg-name")
}

func TestDetect_MultiIntentSetsSubIntents(t *testing.T) {
	c := NewClassifier()
	got := c.Detect("Read file.txt then write result.txt")
	if got.MultiIntent {
		assert.LessOrEqual(t, len(got.SubIntents), 2)
	}
}
