package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationsAreOrderedAndUnique(t *testing.T) {
	all := sortedMigrations()
	seen := map[int]bool{}

	for i, mig := range all {
		assert.False(t, seen[mig.Version], "versão %d duplicada", mig.Version)
		seen[mig.Version] = true

		if i > 0 {
			assert.Greater(t, mig.Version, all[i-1].Version)
		}
		assert.NotEmpty(t, strings.TrimSpace(mig.Up), "migração %d sem Up", mig.Version)
		assert.NotEmpty(t, strings.TrimSpace(mig.Down), "migração %d sem Down", mig.Version)
	}
}

func TestPendingSkipsAppliedVersions(t *testing.T) {
	all := sortedMigrations()

	assert.Len(t, pending(all, 0), len(all))
	assert.Empty(t, pending(all, all[len(all)-1].Version))

	rest := pending(all, 1)
	if assert.NotEmpty(t, rest) {
		assert.Equal(t, 2, rest[0].Version)
	}
}
