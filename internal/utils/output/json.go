package output

import (
	"encoding/json"
	"os"

	"github.com/law-makers/bounty/pkg/models"
)

// SaveJSON writes the payload as indented JSON to filepath
func SaveJSON(payload models.ResponsePayload, filepath string) error {
	content, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, content, 0644)
}
