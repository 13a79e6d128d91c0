package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webscout/pkg/logger"
)

func TestInventoryCollectsWrittenFiles(t *testing.T) {
	dir := t.TempDir()
	log := logger.NewLogger(logrus.PanicLevel)

	inv, err := Watch(context.Background(), dir, log)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "whatweb.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nikto.txt"), []byte("raw"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	paths := inv.Stop()

	assert.Equal(t, []string{
		filepath.Join(dir, "nikto.txt"),
		filepath.Join(dir, "whatweb.json"),
	}, paths)
	assert.True(t, sort.StringsAreSorted(paths))
}

func TestInventorySweepsPreexistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "before.txt"), []byte("x"), 0644))

	inv, err := Watch(context.Background(), dir, logger.NewLogger(logrus.PanicLevel))
	require.NoError(t, err)

	paths := inv.Stop()
	assert.Contains(t, paths, filepath.Join(dir, "before.txt"))
}

func TestWatchRejectsMissingDirectory(t *testing.T) {
	_, err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing"), logger.NewLogger(logrus.PanicLevel))
	assert.Error(t, err)
}
