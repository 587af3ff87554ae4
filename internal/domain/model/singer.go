package model

// Singer は Singers テーブルの 1 行です。JSON のキーはテーブルの列名に合わせています。
type Singer struct {
	ID        int64  `json:"SingerId"`
	FirstName string `json:"FirstName"`
	LastName  string `json:"LastName"`
}

// FullName returns "First Last".
func (s Singer) FullName() string {
	return s.FirstName + " " + s.LastName
}
