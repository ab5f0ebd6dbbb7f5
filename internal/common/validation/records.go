// internal/common/validation/records.go
package validation

const incomeProfileSchema = `{
  "type": "object",
  "required": ["monthlyIncome", "currency", "savingsPercentage", "hoursPerDay", "daysPerWeek"],
  "properties": {
    "monthlyIncome":     {"type": "number", "minimum": 0},
    "currency":          {"type": "string", "enum": ["USD", "EUR", "GBP", "INR"]},
    "savingsPercentage": {"type": "number", "minimum": 1, "maximum": 100},
    "hoursPerDay":       {"type": "number", "minimum": 1, "maximum": 24},
    "daysPerWeek":       {"type": "number", "minimum": 1, "maximum": 7}
  }
}`

// goalProperties is shared by the goal input and stored result schemas.
const goalProperties = `
    "id":        {"type": "string"},
    "name":      {"type": "string", "minLength": 1},
    "cost":      {"type": "number", "minimum": 0},
    "type":      {"type": "string", "enum": ["product", "experience"]},
    "years":     {"type": "integer", "minimum": 1, "maximum": 50},
    "impact":    {"type": "integer", "minimum": 1, "maximum": 5},
    "timestamp": {"type": "integer", "minimum": 0}`

const goalSchema = `{
  "type": "object",
  "required": ["name", "cost", "type", "years", "impact"],
  "properties": {` + goalProperties + `
  }
}`

const savingsTimeSchema = `{
  "type": "object",
  "required": ["hours", "days", "weeks", "months", "years"],
  "properties": {
    "hours":  {"type": ["number", "null"]},
    "days":   {"type": ["number", "null"]},
    "weeks":  {"type": ["number", "null"]},
    "months": {"type": ["number", "null"]},
    "years":  {"type": ["number", "null"]}
  }
}`

const goalResultItemSchema = `{
  "type": "object",
  "required": ["id", "name", "cost", "type", "years", "impact", "timestamp", "savingsTime", "goalScore", "verdict"],
  "properties": {` + goalProperties + `,
    "savingsTime": ` + savingsTimeSchema + `,
    "goalScore":   {"type": "number", "minimum": 0, "maximum": 100},
    "verdict":     {"type": "string", "enum": ["worthless", "whatever", "worth", "justdoit"]}
  }
}`

const goalResultListSchema = `{
  "type": "array",
  "items": ` + goalResultItemSchema + `
}`

// Record schemas for the persisted keys and the job worker inputs.
var (
	IncomeProfileSchema  = MustCompile("incomeProfile", incomeProfileSchema)
	GoalSchema           = MustCompile("goal", goalSchema)
	GoalResultSchema     = MustCompile("goalResult", goalResultItemSchema)
	GoalResultListSchema = MustCompile("goalResults", goalResultListSchema)
)
