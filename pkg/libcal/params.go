package libcal

import (
	"time"

	"github.com/fivetwenty-io/libcal/internal/constants"
)

// Visibility values accepted by ItemsParams.
const (
	VisibilityPublic    = "public"
	VisibilityPrivate   = "private"
	VisibilityAdminOnly = "admin_only"
)

// AvailabilityNext asks for the next available day.
const AvailabilityNext = "next"

// CacheOptions enables memoization of an action's result for TTL. A zero
// TTL with Enabled uses the default of 60 seconds.
type CacheOptions struct {
	Enabled bool
	TTL     time.Duration
}

// CacheFor enables caching for ttl.
func CacheFor(ttl time.Duration) CacheOptions {
	return CacheOptions{Enabled: true, TTL: ttl}
}

// EffectiveTTL returns the TTL to store results with.
func (c CacheOptions) EffectiveTTL() time.Duration {
	if c.TTL <= 0 {
		return constants.DefaultActionCacheTTL
	}

	return c.TTL
}

// Date formats t as a date parameter.
func Date(t time.Time) *string {
	return String(t.Format(constants.DateFormat))
}

// AvailabilityOn asks for availability on a single day.
func AvailabilityOn(day time.Time) *string {
	return Date(day)
}

// AvailabilityBetween asks for availability from one day to another.
func AvailabilityBetween(from, to time.Time) *string {
	return String(from.Format(constants.DateFormat) + "," + to.Format(constants.DateFormat))
}

func spacePath(resource string) *URIBuilder {
	return NewURI("/" + constants.APIVersion + "/space/" + resource)
}

func apiSpacePath(resource string) *URIBuilder {
	return NewURI("/api/" + constants.APIVersion + "/space/" + resource)
}

// BookingParams selects bookings by booking id.
type BookingParams struct {
	IDs         []string `validate:"min=1,dive,required"`
	FormAnswers *bool
	Cache       CacheOptions `validate:"-"`
}

// Validate checks the parameters.
func (p *BookingParams) Validate() error { return validateStruct(p) }

// URI returns the request URI.
func (p *BookingParams) URI() string {
	return spacePath("booking").
		AddParam(p.IDs).
		AddQuery("formAnswers", p.FormAnswers).
		String()
}

// BookingsParams filters the bookings list.
type BookingsParams struct {
	EID         []int   `validate:"omitempty,dive,gt=0"`
	SeatID      []int   `validate:"omitempty,dive,gt=0"`
	CID         []int   `validate:"omitempty,dive,gt=0"`
	LID         *int    `validate:"omitnil,gt=0"`
	Email       *string `validate:"omitnil,email"`
	Date        *string `validate:"omitnil,datetime=2006-01-02"`
	Days        *int    `validate:"omitnil,min=0,max=365"`
	Limit       *int    `validate:"omitnil,min=1,max=500"`
	Page        *int    `validate:"omitnil,min=1"`
	FormAnswers *bool
	Cache       CacheOptions `validate:"-"`
}

// Validate checks the parameters.
func (p *BookingsParams) Validate() error { return validateStruct(p) }

// URI returns the request URI.
func (p *BookingsParams) URI() string {
	return spacePath("bookings").
		AddQuery("eid", p.EID).
		AddQuery("seat_id", p.SeatID).
		AddQuery("cid", p.CID).
		AddQuery("lid", p.LID).
		AddQuery("email", p.Email).
		AddQuery("date", p.Date).
		AddQuery("days", p.Days).
		AddQuery("limit", p.Limit).
		AddQuery("page", p.Page).
		AddQuery("formAnswers", p.FormAnswers).
		String()
}

// CancelParams lists the bookings to cancel.
type CancelParams struct {
	IDs []string `validate:"min=1,dive,required"`
}

// Validate checks the parameters.
func (p *CancelParams) Validate() error { return validateStruct(p) }

// URI returns the request URI.
func (p *CancelParams) URI() string {
	return spacePath("cancel").AddParam(p.IDs).String()
}

// CategoriesParams selects the categories of one or more locations.
type CategoriesParams struct {
	IDs       []int `validate:"min=1,dive,gt=0"`
	AdminOnly *bool
	Details   *bool
	Cache     CacheOptions `validate:"-"`
}

// Validate checks the parameters.
func (p *CategoriesParams) Validate() error { return validateStruct(p) }

// URI returns the request URI.
func (p *CategoriesParams) URI() string {
	return spacePath("categories").
		AddParam(p.IDs).
		AddQuery("admin_only", p.AdminOnly).
		AddQuery("details", p.Details).
		String()
}

// CategoryParams selects categories by id.
type CategoryParams struct {
	IDs          []int   `validate:"min=1,dive,gt=0"`
	Availability *string `validate:"omitnil,availability"`
	Details      *bool
	Cache        CacheOptions `validate:"-"`
}

// Validate checks the parameters.
func (p *CategoryParams) Validate() error { return validateStruct(p) }

// URI returns the request URI.
func (p *CategoryParams) URI() string {
	return spacePath("category").
		AddParam(p.IDs).
		AddQuery("availability", p.Availability).
		AddQuery("details", p.Details).
		String()
}

// FormParams selects booking forms by id.
type FormParams struct {
	IDs   []int        `validate:"min=1,dive,gt=0"`
	Cache CacheOptions `validate:"-"`
}

// Validate checks the parameters.
func (p *FormParams) Validate() error { return validateStruct(p) }

// URI returns the request URI.
func (p *FormParams) URI() string {
	return spacePath("form").AddParam(p.IDs).String()
}

// ItemParams selects items by id.
type ItemParams struct {
	IDs          []int        `validate:"min=1,dive,gt=0"`
	Availability *string      `validate:"omitnil,availability"`
	Cache        CacheOptions `validate:"-"`
}

// Validate checks the parameters.
func (p *ItemParams) Validate() error { return validateStruct(p) }

// URI returns the request URI.
func (p *ItemParams) URI() string {
	return spacePath("item").
		AddParam(p.IDs).
		AddQuery("availability", p.Availability).
		String()
}

// ItemsParams lists the items of a location.
type ItemsParams struct {
	LocationID     int  `validate:"gt=0"`
	CategoryID     *int `validate:"omitnil,gt=0"`
	ZoneID         *int `validate:"omitnil,gt=0"`
	AccessibleOnly *bool
	Bookable       *bool
	Powered        *bool
	Availability   *string      `validate:"omitnil,availability"`
	PageIndex      *int         `validate:"omitnil,min=0"`
	PageSize       *int         `validate:"omitnil,min=1,max=100"`
	Visibility     *string      `validate:"omitnil,oneof=public private admin_only"`
	Cache          CacheOptions `validate:"-"`
}

// Validate checks the parameters.
func (p *ItemsParams) Validate() error { return validateStruct(p) }

// URI returns the request URI.
func (p *ItemsParams) URI() string {
	return apiSpacePath("items").
		AddParam(p.LocationID).
		AddQuery("categoryId", p.CategoryID).
		AddQuery("zoneId", p.ZoneID).
		AddQuery("accessibleOnly", p.AccessibleOnly).
		AddQuery("bookable", p.Bookable).
		AddQuery("powered", p.Powered).
		AddQuery("availability", p.Availability).
		AddQuery("pageIndex", p.PageIndex).
		AddQuery("pageSize", p.PageSize).
		AddQuery("visibility", p.Visibility).
		String()
}

// LocationsParams filters the locations list.
type LocationsParams struct {
	AdminOnly *bool
	Details   *bool
	Cache     CacheOptions `validate:"-"`
}

// Validate checks the parameters.
func (p *LocationsParams) Validate() error { return validateStruct(p) }

// URI returns the request URI.
func (p *LocationsParams) URI() string {
	return spacePath("locations").
		AddQuery("admin_only", p.AdminOnly).
		AddQuery("details", p.Details).
		String()
}

// NicknameParams selects public booking nicknames of categories.
type NicknameParams struct {
	IDs   []int        `validate:"min=1,dive,gt=0"`
	Date  *string      `validate:"omitnil,datetime=2006-01-02"`
	Cache CacheOptions `validate:"-"`
}

// Validate checks the parameters.
func (p *NicknameParams) Validate() error { return validateStruct(p) }

// URI returns the request URI.
func (p *NicknameParams) URI() string {
	return spacePath("nickname").
		AddParam(p.IDs).
		AddQuery("date", p.Date).
		String()
}

// QuestionParams selects form questions by id.
type QuestionParams struct {
	IDs []int `validate:"min=1,dive,gt=0"`
}

// Validate checks the parameters.
func (p *QuestionParams) Validate() error { return validateStruct(p) }

// URI returns the request URI.
func (p *QuestionParams) URI() string {
	return spacePath("question").AddParam(p.IDs).String()
}

// ReserveURI is where reservation payloads are posted.
func ReserveURI() string {
	return spacePath("reserve").String()
}

// SeatParams selects a seat.
type SeatParams struct {
	ID           int          `validate:"gt=0"`
	Availability *string      `validate:"omitnil,availability_dates"`
	Cache        CacheOptions `validate:"-"`
}

// Validate checks the parameters.
func (p *SeatParams) Validate() error { return validateStruct(p) }

// URI returns the request URI.
func (p *SeatParams) URI() string {
	return apiSpacePath("seat").
		AddParam(p.ID).
		AddQuery("availability", p.Availability).
		String()
}

// SeatsParams lists the seats of a location.
type SeatsParams struct {
	LocationID     int     `validate:"gt=0"`
	Availability   *string `validate:"omitnil,availability"`
	CategoryID     *int    `validate:"omitnil,gt=0"`
	ZoneID         *int    `validate:"omitnil,gt=0"`
	AccessibleOnly *bool
	Powered        *bool
	PageIndex      *int         `validate:"omitnil,min=0"`
	PageSize       *int         `validate:"omitnil,min=1,max=100"`
	Cache          CacheOptions `validate:"-"`
}

// Validate checks the parameters.
func (p *SeatsParams) Validate() error { return validateStruct(p) }

// URI returns the request URI.
func (p *SeatsParams) URI() string {
	return apiSpacePath("seats").
		AddParam(p.LocationID).
		AddQuery("availability", p.Availability).
		AddQuery("categoryId", p.CategoryID).
		AddQuery("zoneId", p.ZoneID).
		AddQuery("accessibleOnly", p.AccessibleOnly).
		AddQuery("powered", p.Powered).
		AddQuery("pageIndex", p.PageIndex).
		AddQuery("pageSize", p.PageSize).
		String()
}

// UtilizationParams selects a location's utilization.
type UtilizationParams struct {
	LocationID int          `validate:"gt=0"`
	CategoryID *int         `validate:"omitnil,gt=0"`
	ZoneID     *int         `validate:"omitnil,gt=0"`
	Cache      CacheOptions `validate:"-"`
}

// Validate checks the parameters.
func (p *UtilizationParams) Validate() error { return validateStruct(p) }

// URI returns the request URI.
func (p *UtilizationParams) URI() string {
	return apiSpacePath("utilization").
		AddParam(p.LocationID).
		AddQuery("categoryId", p.CategoryID).
		AddQuery("zoneId", p.ZoneID).
		String()
}

// ZoneParams selects a zone.
type ZoneParams struct {
	ID    int          `validate:"gt=0"`
	Cache CacheOptions `validate:"-"`
}

// Validate checks the parameters.
func (p *ZoneParams) Validate() error { return validateStruct(p) }

// URI returns the request URI.
func (p *ZoneParams) URI() string {
	return apiSpacePath("zone").AddParam(p.ID).String()
}

// ZonesParams lists the zones of a location.
type ZonesParams struct {
	LocationID int `validate:"gt=0"`
}

// Validate checks the parameters.
func (p *ZonesParams) Validate() error { return validateStruct(p) }

// URI returns the request URI.
func (p *ZonesParams) URI() string {
	return apiSpacePath("zones").AddParam(p.LocationID).String()
}
