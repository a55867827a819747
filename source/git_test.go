package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNameStatus(t *testing.T) {
	out := `A	added.go
M	changed.go
D	gone.go
R100	old.go	renamed.go

`
	files := parseNameStatus(out)
	assert.Equal(t, []ChangedFile{
		{Path: "added.go", Status: StatusAdded},
		{Path: "changed.go", Status: StatusModified},
		{Path: "gone.go", Status: StatusRemoved},
		{Path: "renamed.go", Status: StatusModified},
	}, files)
}

func TestParseNameStatus_Empty(t *testing.T) {
	assert.Empty(t, parseNameStatus(""))
	assert.Empty(t, parseNameStatus("\n\n"))
}

func TestDiffSpec(t *testing.T) {
	assert.Nil(t, diffSpec("", ""))
	assert.Equal(t, []string{"HEAD"}, diffSpec("HEAD", ""))
	assert.Equal(t, []string{"HEAD~1", "HEAD"}, diffSpec("HEAD~1", "HEAD"))
}

func TestValidatePath(t *testing.T) {
	base := t.TempDir()

	assert.NoError(t, validatePath(base, base+"/pkg/file.go"))
	assert.Error(t, validatePath(base, ""))
	assert.Error(t, validatePath(base, base+"/../escape.go"))
	assert.Error(t, validatePath(base, "/etc/passwd"))
}
