package endpoints

import (
	"github.com/jackzampolin/mdtoc/internal/api"
)

// MaxBodyBytes bounds request bodies accepted by the document endpoints.
const MaxBodyBytes = 4 << 20

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ConfigEndpoint{},

		// Document endpoints
		&FormatEndpoint{},
		&HeadingsEndpoint{},
	}
}
