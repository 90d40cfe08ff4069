package config

import "fmt"

// Substrate modes. The substrate is the external system that actually wakes
// up at the trigger minute and invokes the dispatch target.
const (
	// SubstrateEventBridge registers rules against AWS EventBridge with the
	// dispatch target deployed as a Lambda function.
	SubstrateEventBridge = "eventbridge"

	// SubstrateEmbedded runs an in-process one-shot timer substrate. Meant
	// for dev and tests; rules do not survive a process restart.
	SubstrateEmbedded = "embedded"
)

// SubstrateConfig selects and configures the rule substrate.
type SubstrateConfig struct {
	Mode string `envconfig:"MODE" default:"embedded" validate:"oneof=eventbridge embedded"`

	// AWS settings, required in eventbridge mode.
	Region string `envconfig:"REGION"`

	// TargetARN is the addressable identifier of the dispatch target: the
	// Lambda function ARN in eventbridge mode, an opaque label in embedded
	// mode.
	TargetARN string `envconfig:"TARGET_ARN"`

	// DispatchToken guards the internal dispatch HTTP route. Only relevant
	// for eventbridge deployments that bridge invocations back over HTTP.
	DispatchToken string `envconfig:"DISPATCH_TOKEN"`
}

// Validate checks the substrate configuration against the selected mode.
func (c *SubstrateConfig) Validate(stage string) error {
	if c.Mode == SubstrateEventBridge {
		if c.Region == "" {
			return fmt.Errorf("substrate region is required in eventbridge mode")
		}
		if c.TargetARN == "" {
			return fmt.Errorf("substrate target ARN is required in eventbridge mode")
		}
	}

	if stage == StageProduction && c.Mode == SubstrateEmbedded {
		return fmt.Errorf("embedded substrate is not allowed in production stage")
	}

	return nil
}
