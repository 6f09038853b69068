package config

import (
	"fmt"
	"os"
)

// Template returns a commented node config with every key at its default
// except the identity, which must be filled in.
func Template() string {
	return nodeTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(nodeTemplate), 0o600)
}

const nodeTemplate = `# simwire node config

# Node identity. 255 / 65535 mean unset and are rejected.
location = 1
object = 1

# Largest peer clock delta corrected in one step, in ticks.
clock_jump = 20
# Set in (0, 1] to smooth large deltas instead of stepping by clock_jump.
# clock_gain = 0.25

# Scheduler step length in ticks.
step_ticks = 10

# Lifecycle frame limits.
max_payload_bytes = 1048576
max_auth_bytes = 4096

# Lifecycle messages remembered for redelivery detection.
dedup_capacity = 4096

# trace | debug | info | warn | error | disabled
log_level = "info"
`
