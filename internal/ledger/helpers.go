package ledger

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Klingon-tech/klingnet-ledger/config"
)

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

func snapshotPath(cfg *config.Config) string {
	if strings.HasPrefix(cfg.Wallet.Snapshot, "~") {
		return expandHome(cfg.Wallet.Snapshot)
	}
	return cfg.SnapshotFile()
}
