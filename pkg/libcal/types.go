package libcal

// Credential is an OAuth client credentials token.
type Credential struct {
	Extras `json:"-" yaml:"-"`

	AccessToken string `json:"access_token" yaml:"access_token"`
	ExpiresIn   int    `json:"expires_in"   yaml:"expires_in"`
	TokenType   string `json:"token_type"   yaml:"token_type"`
	Scope       string `json:"scope"        yaml:"scope"`
}

// AuthorizationHeader returns the Authorization header value.
func (c *Credential) AuthorizationHeader() string {
	return c.TokenType + " " + c.AccessToken
}

// Availability is a bookable time slot.
type Availability struct {
	Extras `json:"-" yaml:"-"`

	From Time `json:"from" yaml:"from"`
	To   Time `json:"to"   yaml:"to"`
}

// Booking is a space or seat booking. Custom form answers are available
// through the embedded QuestionExtras.
type Booking struct {
	QuestionExtras `json:"-" yaml:"-"`

	BookID       string  `json:"bookId"                  yaml:"bookId"`
	EID          int     `json:"eid"                     yaml:"eid"`
	CID          int     `json:"cid"                     yaml:"cid"`
	LID          int     `json:"lid"                     yaml:"lid"`
	SeatID       *int    `json:"seat_id,omitempty"       yaml:"seat_id,omitempty"`
	FromDate     Time    `json:"fromDate"                yaml:"fromDate"`
	ToDate       Time    `json:"toDate"                  yaml:"toDate"`
	Created      Time    `json:"created"                 yaml:"created"`
	FirstName    string  `json:"firstName"               yaml:"firstName"`
	LastName     string  `json:"lastName"                yaml:"lastName"`
	Email        string  `json:"email"                   yaml:"email"`
	Account      string  `json:"account"                 yaml:"account"`
	Status       string  `json:"status"                  yaml:"status"`
	LocationName string  `json:"location_name"           yaml:"location_name"`
	CategoryName string  `json:"category_name"           yaml:"category_name"`
	ItemName     string  `json:"item_name"               yaml:"item_name"`
	SeatName     *string `json:"seat_name,omitempty"     yaml:"seat_name,omitempty"`
	Nickname     *string `json:"nickname,omitempty"      yaml:"nickname,omitempty"`
	CheckInCode  *string `json:"check_in_code,omitempty" yaml:"check_in_code,omitempty"`
}

// Categories is a location with its categories. The nickname endpoint also
// returns this shape, with spaces and their bookings filled in.
type Categories struct {
	Extras `json:"-" yaml:"-"`

	LID        *int       `json:"lid,omitempty"  yaml:"lid,omitempty"`
	Name       *string    `json:"name,omitempty" yaml:"name,omitempty"`
	Categories []Category `json:"categories"     yaml:"categories"`
}

// Category is a space category.
type Category struct {
	Extras `json:"-" yaml:"-"`

	CID       int             `json:"cid"                  yaml:"cid"`
	Name      *string         `json:"name,omitempty"       yaml:"name,omitempty"`
	FormID    int             `json:"formid"               yaml:"formid"`
	Public    bool            `json:"public"               yaml:"public"`
	AdminOnly *bool           `json:"admin_only,omitempty" yaml:"admin_only,omitempty"`
	Items     []CategoryItem  `json:"items,omitempty"      yaml:"items,omitempty"`
	Spaces    []CategorySpace `json:"spaces,omitempty"     yaml:"spaces,omitempty"`
}

// CategoryItem is an item listed in a category. The API sends either a bare
// id or an object; both decode to this.
type CategoryItem struct {
	Extras `json:"-" yaml:"-"`

	ID   int     `json:"id"             yaml:"id"`
	Name *string `json:"name,omitempty" yaml:"name,omitempty"`
}

// CategorySpace is a space with its public bookings, from the nickname endpoint.
type CategorySpace struct {
	Extras `json:"-" yaml:"-"`

	ID       int               `json:"id"                 yaml:"id"`
	Name     string            `json:"name"               yaml:"name"`
	Bookings []CategoryBooking `json:"bookings,omitempty" yaml:"bookings,omitempty"`
}

// CategoryBooking is a confirmed booking shown under its public nickname.
type CategoryBooking struct {
	Extras `json:"-" yaml:"-"`

	Nickname  string `json:"nickname"   yaml:"nickname"`
	Start     Time   `json:"start"      yaml:"start"`
	End       Time   `json:"end"        yaml:"end"`
	Created   Time   `json:"created"    yaml:"created"`
	BookingID string `json:"booking_id" yaml:"booking_id"`
}

// Form is a booking form.
type Form struct {
	Extras `json:"-" yaml:"-"`

	ID     int        `json:"id"     yaml:"id"`
	Name   string     `json:"name"   yaml:"name"`
	Fields []Question `json:"fields" yaml:"fields"`
}

// Item is a bookable space.
type Item struct {
	Extras `json:"-" yaml:"-"`

	ID                int            `json:"id"                         yaml:"id"`
	Name              *string        `json:"name,omitempty"             yaml:"name,omitempty"`
	Description       *string        `json:"description,omitempty"      yaml:"description,omitempty"`
	Image             *string        `json:"image,omitempty"            yaml:"image,omitempty"`
	Capacity          *int           `json:"capacity,omitempty"         yaml:"capacity,omitempty"`
	FormID            *int           `json:"formid,omitempty"           yaml:"formid,omitempty"`
	IsBookableAsWhole *bool          `json:"isBookableAsWhole,omitempty" yaml:"isBookableAsWhole,omitempty"`
	IsAccessible      *bool          `json:"isAccessible,omitempty"     yaml:"isAccessible,omitempty"`
	IsPowered         *bool          `json:"isPowered,omitempty"        yaml:"isPowered,omitempty"`
	IsEventLocation   *bool          `json:"isEventLocation,omitempty"  yaml:"isEventLocation,omitempty"`
	ZoneID            *int           `json:"zoneId,omitempty"           yaml:"zoneId,omitempty"`
	ZoneName          *string        `json:"zoneName,omitempty"         yaml:"zoneName,omitempty"`
	GroupID           *int           `json:"groupId,omitempty"          yaml:"groupId,omitempty"`
	GroupName         *string        `json:"groupName,omitempty"        yaml:"groupName,omitempty"`
	Availability      []Availability `json:"availability,omitempty"     yaml:"availability,omitempty"`
}

// Location is a LibCal location.
type Location struct {
	Extras `json:"-" yaml:"-"`

	LID       int     `json:"lid"                  yaml:"lid"`
	Name      string  `json:"name"                 yaml:"name"`
	Public    bool    `json:"public"               yaml:"public"`
	FormID    *int    `json:"formid,omitempty"     yaml:"formid,omitempty"`
	Terms     *string `json:"terms,omitempty"      yaml:"terms,omitempty"`
	AdminOnly *bool   `json:"admin_only,omitempty" yaml:"admin_only,omitempty"`
}

// Question is a booking form question.
type Question struct {
	Extras `json:"-" yaml:"-"`

	ID       *int     `json:"id,omitempty"      yaml:"id,omitempty"`
	Label    string   `json:"label"             yaml:"label"`
	Type     string   `json:"type"              yaml:"type"`
	Required bool     `json:"required"          yaml:"required"`
	Options  []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Seat is a bookable seat.
type Seat struct {
	Extras `json:"-" yaml:"-"`

	ID           int            `json:"id"                     yaml:"id"`
	Name         string         `json:"name"                   yaml:"name"`
	Description  string         `json:"description"            yaml:"description"`
	IsAccessible bool           `json:"isAccessible"           yaml:"isAccessible"`
	IsPowered    bool           `json:"isPowered"              yaml:"isPowered"`
	Image        string         `json:"image"                  yaml:"image"`
	Status       string         `json:"status"                 yaml:"status"`
	Availability []Availability `json:"availability,omitempty" yaml:"availability,omitempty"`
}

// Utilization is the current occupancy of a location.
type Utilization struct {
	Extras `json:"-" yaml:"-"`

	SeatSummary  UtilizationSummary `json:"seatSummary"  yaml:"seatSummary"`
	SpaceSummary UtilizationSummary `json:"spaceSummary" yaml:"spaceSummary"`
	Zones        []Zone             `json:"zones"        yaml:"zones"`
	Date         Time               `json:"date"         yaml:"date"`
}

// UtilizationSummary counts active and bookable seats or spaces.
type UtilizationSummary struct {
	Extras `json:"-" yaml:"-"`

	Active        int `json:"active"        yaml:"active"`
	BookableCount int `json:"bookableCount" yaml:"bookableCount"`
	TotalCount    int `json:"totalCount"    yaml:"totalCount"`
}

// UtilizationItem is the occupancy of one space.
type UtilizationItem struct {
	Extras `json:"-" yaml:"-"`

	ID               int    `json:"id"               yaml:"id"`
	Name             string `json:"name"             yaml:"name"`
	BookableAsWhole  bool   `json:"bookableAsWhole"  yaml:"bookableAsWhole"`
	CurrentOccupancy int    `json:"currentOccupancy" yaml:"currentOccupancy"`
	CurrentCapacity  int    `json:"currentCapacity"  yaml:"currentCapacity"`
	MaxCapacity      int    `json:"maxCapacity"      yaml:"maxCapacity"`
}

// Zone is a group of items within a location. Utilization responses also
// list the occupancy of each item.
type Zone struct {
	Extras `json:"-" yaml:"-"`

	ID          int               `json:"id"                    yaml:"id"`
	Name        string            `json:"name"                  yaml:"name"`
	Description *string           `json:"description,omitempty" yaml:"description,omitempty"`
	ItemIDs     []int             `json:"itemIds"               yaml:"itemIds"`
	Items       []UtilizationItem `json:"items,omitempty"       yaml:"items,omitempty"`
}

// CancelResponse reports the outcome of cancelling one booking.
type CancelResponse struct {
	Extras `json:"-" yaml:"-"`

	BookingID string  `json:"booking_id"      yaml:"booking_id"`
	Cancelled bool    `json:"cancelled"       yaml:"cancelled"`
	Error     *string `json:"error,omitempty" yaml:"error,omitempty"`
}

// ReserveResponse is returned by a successful reservation.
type ReserveResponse struct {
	Extras `json:"-" yaml:"-"`

	BookingID string   `json:"booking_id"     yaml:"booking_id"`
	Cost      *float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }
