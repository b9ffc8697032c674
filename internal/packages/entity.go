// AngelaMos | 2026
// entity.go

package packages

const (
	MinRating = 1
	MaxRating = 5
)

// Package is a service listing owned by exactly one freelancer.
type Package struct {
	ID       int64  `db:"id"`
	Name     string `db:"package_name"`
	Category string `db:"category"`
	Rating   int    `db:"rating"`
	OwnerID  int64  `db:"freelancer_id"`
}

func (p *Package) IsOwnedBy(accountID int64) bool {
	return p.OwnerID == accountID
}

func validRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
