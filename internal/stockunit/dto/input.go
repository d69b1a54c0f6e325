package dto

type CreateUnitInput struct {
	VariantID  string
	LocationID string
	UnitCode   string
	Status     string // optional, defaults to available
	Notes      string
	ActorID    string
}

type UpdateUnitInput struct {
	VariantID  *string
	LocationID *string
	UnitCode   *string
	Notes      *string
}

type RemoveMode string

const (
	RemoveModeDelete RemoveMode = "delete"
	RemoveModeDamage RemoveMode = "damage"
)

type RemoveUnitsInput struct {
	UnitIDs []string
	Mode    RemoveMode
	Reason  string
	ActorID string
}
