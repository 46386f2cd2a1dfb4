package bootstrap

import (
	"github.com/kbukum/podscribe/config"
)

// Config is the constraint for application configuration types. Any struct
// embedding config.ServiceConfig and providing ApplyDefaults and Validate
// satisfies it.
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
