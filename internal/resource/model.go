package resource

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoleAdmin is the only distinguished account role.
const RoleAdmin = "admin"

// Role is the stored role of an account. A stored value that is not a
// string decodes as the empty role.
type Role string

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (r *Role) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	s, ok := bson.RawValue{Type: t, Value: data}.StringValueOK()
	if !ok {
		*r = ""
		return nil
	}
	*r = Role(s)
	return nil
}

// Account is a registered user. Email is the join key between identity
// claims, role lookups and cart ownership.
type Account struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name  string             `bson:"name,omitempty" json:"name,omitempty"`
	Email string             `bson:"email" json:"email" binding:"required"`
	Photo string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Role  Role               `bson:"role,omitempty" json:"role,omitempty"`
}

// IsAdmin reports whether the stored role is exactly the admin marker.
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// MenuItem is a dish on the menu.
type MenuItem struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name     string             `bson:"name" json:"name" binding:"required"`
	Image    string             `bson:"image" json:"image"`
	Category string             `bson:"category" json:"category"`
	Price    float64            `bson:"price" json:"price" binding:"gte=0"`
	Recipe   string             `bson:"recipe" json:"recipe"`
}

// MenuPatch carries the replaceable fields of a menu item. Fields left out
// of the request are stored as null.
type MenuPatch struct {
	Name     *string  `json:"name"`
	Image    *string  `json:"image"`
	Category *string  `json:"category"`
	Price    *float64 `json:"price"`
	Recipe   *string  `json:"recipe"`
}

// CartItem is a menu item placed in a customer's cart.
type CartItem struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	MenuID   string             `bson:"menuId,omitempty" json:"menuId,omitempty"`
	Email    string             `bson:"email" json:"email" binding:"required"`
	Name     string             `bson:"name,omitempty" json:"name,omitempty"`
	Image    string             `bson:"image,omitempty" json:"image,omitempty"`
	Price    float64            `bson:"price" json:"price" binding:"gte=0"`
	Quantity int                `bson:"quantity,omitempty" json:"quantity,omitempty" binding:"gte=0"`
}

// Review is a customer review. Reviews are read-only here.
type Review struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name    string             `bson:"name" json:"name"`
	Details string             `bson:"details" json:"details"`
	Rating  float64            `bson:"rating" json:"rating"`
}

// AlreadyExists is the outcome of creating an account whose email is taken.
type AlreadyExists struct {
	Message string `json:"message"`
}

// AccountExists is returned by account creation for a known email.
var AccountExists = AlreadyExists{Message: "user already exists"}

// AdminStatus answers whether an account holds the admin role.
type AdminStatus struct {
	IsAdmin bool `json:"isAdmin"`
}
