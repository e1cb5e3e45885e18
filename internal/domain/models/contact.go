package models

// ContactCategories lists the categories offered by the registration form.
var ContactCategories = []string{"client", "fournisseur", "employe", "partenaire", "prospect"}

// Contact is the payload accepted by the registration endpoint.
type Contact struct {
	ID      RecordID `json:"id,omitempty" csv:"id"`
	Name    string   `json:"nom" csv:"nom"`
	Email   string   `json:"email" csv:"email"`
	Phone   string   `json:"telephone" csv:"telephone"`
	Company string   `json:"entreprise" csv:"entreprise"`
	Message string   `json:"message" csv:"message"`
}
