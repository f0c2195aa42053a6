package models

// Task and SpecialEvent live in the external entity store. Dates are stored
// as "2006-01-02" strings on an indexed field.
type Task struct {
	ID        string `bson:"_id" json:"id"`
	Title     string `bson:"title" json:"title"`
	DueDate   string `bson:"due_date" json:"due_date"`
	CreatedBy string `bson:"created_by" json:"created_by"`
	Completed bool   `bson:"completed" json:"completed"`
}

type SpecialEvent struct {
	ID        string `bson:"_id" json:"id"`
	Name      string `bson:"name" json:"name"`
	Date      string `bson:"date" json:"date"`
	CreatedBy string `bson:"created_by" json:"created_by"`
	Completed bool   `bson:"completed" json:"completed"`
}
