package memory

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/sunday-league/internal/domain/legacy"
)

// LoadLegacySnapshot reads a JSON legacy export from path.
func LoadLegacySnapshot(path string) (legacy.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return legacy.Snapshot{}, fmt.Errorf("read legacy snapshot %s: %w", path, err)
	}

	var snapshot legacy.Snapshot
	if err := sonic.Unmarshal(raw, &snapshot); err != nil {
		return legacy.Snapshot{}, fmt.Errorf("decode legacy snapshot %s: %w", path, err)
	}
	return snapshot, nil
}
