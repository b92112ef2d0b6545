package organizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"fileorg/internal/services"
)

// LockPath returns the lock file guarding dest inside lockDir.
func LockPath(lockDir, dest string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(dest)))
	return filepath.Join(lockDir, "dest-"+hex.EncodeToString(sum[:8])+".lock")
}

func acquireDestinationLock(lockDir, dest string) (*flock.Flock, error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "preflight", "create lock directory", fmt.Sprintf("Cannot create %s", lockDir), err)
	}
	lock := flock.New(LockPath(lockDir, dest))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrLocked, "preflight", "acquire lock", fmt.Sprintf("Cannot lock destination %s", dest), err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrLocked, "preflight", "acquire lock",
			fmt.Sprintf("Another run is organizing into %s", dest), nil)
	}
	return lock, nil
}
