package resource

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vyrodovalexey/restaurant/internal/apperr"
	"github.com/vyrodovalexey/restaurant/internal/config"
	"github.com/vyrodovalexey/restaurant/internal/observability"
	"github.com/vyrodovalexey/restaurant/internal/store"
)

// RoleInvalidator drops cached role lookups for an email.
type RoleInvalidator interface {
	Invalidate(ctx context.Context, email string)
}

// Dispatcher performs the CRUD operations of every resource kind against
// the document store. Mutations return the store acknowledgement unchanged.
type Dispatcher struct {
	accounts *store.Collection[Account]
	menu     *store.Collection[MenuItem]
	carts    *store.Collection[CartItem]
	reviews  *store.Collection[Review]
	roles    RoleInvalidator
	logger   observability.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithRoleInvalidator sets the role cache notified when an account's role
// changes or the account is removed.
func WithRoleInvalidator(roles RoleInvalidator) Option {
	return func(d *Dispatcher) {
		d.roles = roles
	}
}

// NewDispatcher creates a dispatcher over the named collections of s.
func NewDispatcher(s *store.Store, names config.CollectionsConfig, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		accounts: AccountCollection(s, names),
		menu:     store.NewCollection[MenuItem](s, names.Menu),
		carts:    store.NewCollection[CartItem](s, names.Carts),
		reviews:  store.NewCollection[Review](s, names.Reviews),
		logger:   observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AccountCollection returns the typed accounts collection.
func AccountCollection(s *store.Store, names config.CollectionsConfig) *store.Collection[Account] {
	return store.NewCollection[Account](s, names.Accounts)
}

// EnsureIndexes asks the store to keep account emails unique, so concurrent
// creates for one email store a single account.
func (d *Dispatcher) EnsureIndexes(ctx context.Context) error {
	return d.accounts.EnsureUnique(ctx, "email")
}

// ListAccounts returns every account.
func (d *Dispatcher) ListAccounts(ctx context.Context) ([]Account, error) {
	accounts, err := d.accounts.Find(ctx, nil)
	return accounts, fail(err)
}

// CreateAccount stores acc unless an account with the same email exists, in
// which case it returns AccountExists and leaves the stored account as is.
// A submitted role is discarded. The lookup and the insert are separate
// calls; only the unique index set up by EnsureIndexes settles a race
// between two creates for the same email.
func (d *Dispatcher) CreateAccount(ctx context.Context, acc *Account) (any, error) {
	existing, err := d.accounts.FindOne(ctx, store.Filter{"email": acc.Email})
	if err != nil {
		return nil, fail(err)
	}
	if existing != nil {
		return AccountExists, nil
	}

	acc.ID = primitive.NilObjectID
	acc.Role = ""
	res, err := d.accounts.InsertOne(ctx, acc)
	if errors.Is(err, store.ErrDuplicateKey) {
		return AccountExists, nil
	}
	if err != nil {
		return nil, fail(err)
	}
	return res, nil
}

// PromoteAccount grants the admin role to the account with id.
func (d *Dispatcher) PromoteAccount(ctx context.Context, rawID string) (*store.UpdateResult, error) {
	id, err := store.ParseID(rawID)
	if err != nil {
		return nil, fail(err)
	}

	acc, err := d.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fail(err)
	}

	res, err := d.accounts.UpdateByID(ctx, id, store.Fields{{Key: "role", Value: RoleAdmin}})
	if err != nil {
		return nil, fail(err)
	}
	if acc != nil {
		d.invalidate(ctx, acc.Email)
		d.logger.Info("account promoted to admin", observability.String("id", id.Hex()))
	}
	return res, nil
}

// DeleteAccount removes the account with id.
func (d *Dispatcher) DeleteAccount(ctx context.Context, rawID string) (*store.DeleteResult, error) {
	id, err := store.ParseID(rawID)
	if err != nil {
		return nil, fail(err)
	}

	acc, err := d.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fail(err)
	}

	res, err := d.accounts.DeleteByID(ctx, id)
	if err != nil {
		return nil, fail(err)
	}
	if acc != nil {
		d.invalidate(ctx, acc.Email)
	}
	return res, nil
}

func (d *Dispatcher) invalidate(ctx context.Context, email string) {
	if d.roles != nil {
		d.roles.Invalidate(ctx, email)
	}
}

// ListCarts returns the cart items owned by email. A nil email matches
// items that carry no owner.
func (d *Dispatcher) ListCarts(ctx context.Context, email *string) ([]CartItem, error) {
	filter := store.Filter{"email": nil}
	if email != nil {
		filter["email"] = *email
	}
	items, err := d.carts.Find(ctx, filter)
	return items, fail(err)
}

// CreateCartItem stores item.
func (d *Dispatcher) CreateCartItem(ctx context.Context, item *CartItem) (*store.InsertResult, error) {
	item.ID = primitive.NilObjectID
	res, err := d.carts.InsertOne(ctx, item)
	return res, fail(err)
}

// DeleteCartItem removes the cart item with id.
func (d *Dispatcher) DeleteCartItem(ctx context.Context, rawID string) (*store.DeleteResult, error) {
	id, err := store.ParseID(rawID)
	if err != nil {
		return nil, fail(err)
	}
	res, err := d.carts.DeleteByID(ctx, id)
	return res, fail(err)
}

// ListMenu returns every menu item.
func (d *Dispatcher) ListMenu(ctx context.Context) ([]MenuItem, error) {
	items, err := d.menu.Find(ctx, nil)
	return items, fail(err)
}

// GetMenuItem returns the menu item with id, or nil when there is none.
func (d *Dispatcher) GetMenuItem(ctx context.Context, rawID string) (*MenuItem, error) {
	id, err := store.ParseID(rawID)
	if err != nil {
		return nil, fail(err)
	}
	item, err := d.menu.FindByID(ctx, id)
	return item, fail(err)
}

// CreateMenuItem stores item.
func (d *Dispatcher) CreateMenuItem(ctx context.Context, item *MenuItem) (*store.InsertResult, error) {
	item.ID = primitive.NilObjectID
	res, err := d.menu.InsertOne(ctx, item)
	return res, fail(err)
}

// UpdateMenuItem replaces name, image, category, price and recipe of the
// menu item with id. Any other field is left untouched.
func (d *Dispatcher) UpdateMenuItem(ctx context.Context, rawID string, patch *MenuPatch) (*store.UpdateResult, error) {
	id, err := store.ParseID(rawID)
	if err != nil {
		return nil, fail(err)
	}
	if patch == nil {
		patch = &MenuPatch{}
	}

	set := store.Fields{
		{Key: "name", Value: nullable(patch.Name)},
		{Key: "image", Value: nullable(patch.Image)},
		{Key: "category", Value: nullable(patch.Category)},
		{Key: "price", Value: nullable(patch.Price)},
		{Key: "recipe", Value: nullable(patch.Recipe)},
	}
	res, err := d.menu.UpdateByID(ctx, id, set)
	return res, fail(err)
}

// DeleteMenuItem removes the menu item with id.
func (d *Dispatcher) DeleteMenuItem(ctx context.Context, rawID string) (*store.DeleteResult, error) {
	id, err := store.ParseID(rawID)
	if err != nil {
		return nil, fail(err)
	}
	res, err := d.menu.DeleteByID(ctx, id)
	return res, fail(err)
}

// ListReviews returns every review.
func (d *Dispatcher) ListReviews(ctx context.Context) ([]Review, error) {
	reviews, err := d.reviews.Find(ctx, nil)
	return reviews, fail(err)
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

// fail maps store errors onto the error taxonomy.
func fail(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrInvalidID):
		return apperr.BadRequest("invalid id", err)
	default:
		return apperr.Upstream("store unavailable", err)
	}
}
