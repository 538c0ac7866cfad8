package events

import (
	"fmt"
	"strings"

	"github.com/soltixdb/casetrend/internal/config"
	"github.com/soltixdb/casetrend/internal/utils"
)

// NewBus creates the Bus selected by cfg. broker is only used for the
// memory type and may be nil.
func NewBus(cfg config.EventsConfig, instanceID string, broker *MemoryBroker) (Bus, error) {
	busType := utils.BusType(strings.ToLower(cfg.Type))
	if busType == "" {
		busType = utils.BusTypeMemory
	}

	switch busType {
	case utils.BusTypeMemory:
		return NewMemoryBus(broker), nil
	case utils.BusTypeNATS:
		return NewNATSBus(cfg.URL, instanceID)
	case utils.BusTypeRedis:
		addr := cfg.URL
		if addr == "" {
			addr = "localhost:6379"
		}
		return NewRedisBus(addr, cfg.Password, cfg.RedisDB)
	case utils.BusTypeKafka:
		return NewKafkaBus(cfg.KafkaBrokers, instanceID)
	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", busType)
	}
}
