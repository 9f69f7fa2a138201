package node

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/laqirace/collectibled/config"
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

// rpcListenAddr builds the host:port the RPC server binds to.
func rpcListenAddr(cfg *config.Config) string {
	return fmt.Sprintf("%s:%d", cfg.RPC.Addr, cfg.RPC.Port)
}
