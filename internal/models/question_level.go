package models

import "encoding/json"

// QuestionLevel is a difficulty tier record owned by the questions service.
// The portal never looks inside it, so it is kept as the raw JSON value.
type QuestionLevel = json.RawMessage
