package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxRecipeImages caps the number of image references attached to one recipe
const MaxRecipeImages = 10

// Recipe represents a recipe owned by an account
type Recipe struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	Ingredients  []string  `json:"ingredients" db:"ingredients"`
	Duration     string    `json:"duration" db:"duration"`
	Instructions string    `json:"instructions" db:"instructions"`
	Images       []string  `json:"images" db:"images"`
	OwnerID      uuid.UUID `json:"owner_id" db:"owner_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	// Owner is populated by admin listings only
	Owner *AccountSummary `json:"owner,omitempty" db:"-"`
}

// TableName returns the table name for the Recipe model
func (Recipe) TableName() string {
	return "recipes"
}

// NewRecipe creates a new Recipe owned by ownerID
func NewRecipe(ownerID uuid.UUID, title, description string, ingredients []string, duration, instructions string, images []string) *Recipe {
	now := time.Now().UTC()
	if images == nil {
		images = []string{}
	}
	return &Recipe{
		ID:           uuid.New(),
		Title:        title,
		Description:  description,
		Ingredients:  ingredients,
		Duration:     duration,
		Instructions: instructions,
		Images:       images,
		OwnerID:      ownerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Favorite marks a recipe as favorited by an account
type Favorite struct {
	AccountID uuid.UUID `json:"account_id" db:"account_id"`
	RecipeID  uuid.UUID `json:"recipe_id" db:"recipe_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Favorite model
func (Favorite) TableName() string {
	return "favorites"
}
