package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFlowdocHookBlock(t *testing.T) {
	block := BuildFlowdocHookBlock("/repo/path")

	for _, expected := range []string{
		HookStart,
		`repo_root="/repo/path"`,
		`[ -f "$repo_root/.flowdoc.yaml" ]`,
		"flowdoc run --log-level warn) || exit 1",
		HookEnd,
	} {
		assert.Contains(t, block, expected)
	}
}

func TestUpsertFlowdocHookReplacesExistingBlock(t *testing.T) {
	existing := "#!/bin/sh\n\necho before\n" + HookStart + "\nold block\n" + HookEnd + "\n\necho after\n"
	updated := UpsertFlowdocHook(existing, "/repo/path")

	assert.NotContains(t, updated, "old block")
	assert.Equal(t, 1, strings.Count(updated, HookStart))
	assert.Equal(t, 1, strings.Count(updated, HookEnd))
	assert.Contains(t, updated, "echo before")
	assert.Contains(t, updated, "echo after")
}

func TestUpsertFlowdocHookAddsShebang(t *testing.T) {
	assert.True(t, strings.HasPrefix(UpsertFlowdocHook("", "/r"), "#!/bin/sh\n\n"+HookStart))

	updated := UpsertFlowdocHook("echo lint", "/r")
	assert.True(t, strings.HasPrefix(updated, "#!/bin/sh\necho lint\n\n"+HookStart), updated)
	assert.True(t, strings.HasSuffix(updated, HookEnd+"\n"))
}
