package checkout

import "fmt"

// Metadata keys embedded in every checkout session. The provider echoes the
// bag back on webhook events; this is the only correlation between a payment
// confirmation and the originating user, so the bag must stand alone.
const (
	MetadataKeyApp       = "app"
	MetadataKeyUserEmail = "user_email"
	MetadataKeyPlanName  = "plan_name"
)

// Reconciliation is the identity recovered from an echoed metadata bag.
type Reconciliation struct {
	App       string
	UserEmail string
	PlanName  string
}

// ReconcileMetadata recovers the originating user and plan from a webhook
// event's metadata without re-querying any session state.
func ReconcileMetadata(metadata map[string]string) (Reconciliation, error) {
	rec := Reconciliation{
		App:       metadata[MetadataKeyApp],
		UserEmail: metadata[MetadataKeyUserEmail],
		PlanName:  metadata[MetadataKeyPlanName],
	}
	if rec.UserEmail == "" {
		return Reconciliation{}, fmt.Errorf("metadata missing %s", MetadataKeyUserEmail)
	}
	if rec.PlanName == "" {
		return Reconciliation{}, fmt.Errorf("metadata missing %s", MetadataKeyPlanName)
	}
	return rec, nil
}
