package xid

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns prefix_<uuidv7>. Ids from one process sort in creation order.
func New(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	if prefix == "" {
		return id.String()
	}
	return fmt.Sprintf("%s_%s", prefix, id.String())
}
