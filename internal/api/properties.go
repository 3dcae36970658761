package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
)

// NoAddress is the address shown for listings that have none.
const NoAddress = "Address not provided"

// Property is a rental listing.
type Property struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	Price        float64  `json:"price"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    float64  `json:"bathrooms"`
	Area         float64  `json:"area"`
	PropertyType string   `json:"propertyType"`
	Status       string   `json:"status"`
	Amenities    []string `json:"amenities"`
	Images       []string `json:"images"`
	LandlordID   string   `json:"landlordId"`
	LandlordName string   `json:"landlordName"`
}

type rawProperty struct {
	identity
	Title        flexString  `json:"title"`
	Name         flexString  `json:"name"`
	Description  flexString  `json:"description"`
	Address      flexString  `json:"address"`
	Location     flexString  `json:"location"`
	City         flexString  `json:"city"`
	Price        flexFloat   `json:"price"`
	Rent         flexFloat   `json:"rent"`
	Bedrooms     flexFloat   `json:"bedrooms"`
	Bathrooms    flexFloat   `json:"bathrooms"`
	Area         flexFloat   `json:"area"`
	PropertyType flexString  `json:"propertyType"`
	Type         flexString  `json:"type"`
	Status       flexString  `json:"status"`
	Amenities    flexStrings `json:"amenities"`
	Images       flexStrings `json:"images"`
	Landlord     ref         `json:"landlord"`
	Owner        ref         `json:"owner"`
}

func shapeProperty(r rawProperty) Property {
	landlord := r.Landlord
	if landlord.ID == "" && landlord.Name == "" {
		landlord = r.Owner
	}
	price := r.Price
	if price == 0 {
		price = r.Rent
	}
	return Property{
		ID:           r.id(),
		Title:        orDefault(flexString(firstNonEmpty(string(r.Title), string(r.Name))), "Untitled Property"),
		Description:  orDefault(r.Description, "No description available"),
		Address:      orDefault(flexString(firstNonEmpty(string(r.Address), string(r.Location))), NoAddress),
		City:         string(r.City),
		Price:        float64(price),
		Bedrooms:     int(r.Bedrooms),
		Bathrooms:    float64(r.Bathrooms),
		Area:         float64(r.Area),
		PropertyType: orDefault(flexString(firstNonEmpty(string(r.PropertyType), string(r.Type))), "Apartment"),
		Status:       orDefault(r.Status, "Available"),
		Amenities:    r.Amenities.slice(),
		Images:       r.Images.slice(),
		LandlordID:   landlord.ID,
		LandlordName: firstNonEmpty(landlord.Name, "Unknown Landlord"),
	}
}

// PropertyInput creates or replaces a landlord's listing.
type PropertyInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Address      string   `json:"address"`
	City         string   `json:"city,omitempty"`
	Price        float64  `json:"price"`
	Bedrooms     int      `json:"bedrooms,omitempty"`
	Bathrooms    float64  `json:"bathrooms,omitempty"`
	Area         float64  `json:"area,omitempty"`
	PropertyType string   `json:"propertyType,omitempty"`
	Status       string   `json:"status,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
}

func (in PropertyInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Address) == "" {
		return clientErrorf("Title and address are required")
	}
	if math.IsNaN(in.Price) || math.IsInf(in.Price, 0) || in.Price <= 0 {
		return clientErrorf("Price must be a positive number")
	}
	if in.Bedrooms < 0 || in.Bathrooms < 0 || in.Area < 0 {
		return clientErrorf("Bedrooms, bathrooms, and area cannot be negative")
	}
	return nil
}

// List returns all public listings. The token is optional; when empty, no
// Authorization header is sent and stored credentials are never read.
func (s PropertiesService) List(ctx context.Context, token string) ([]Property, error) {
	op := operation{action: "fetch properties", resource: "Properties"}
	return Guard(ctx, s.inflight, "fetchProperties", op.action, func(ctx context.Context) ([]Property, error) {
		raws, err := fetchList[rawProperty](ctx, s.Client, request{
			method: http.MethodGet,
			path:   "/api/properties",
			token:  token,
			public: true,
			op:     op,
		})
		if err != nil {
			return nil, err
		}
		return shapeAll(raws, shapeProperty), nil
	})
}

// Get returns one public listing. The token is optional.
func (s PropertiesService) Get(ctx context.Context, token, id string) (*Property, error) {
	if err := requireID(id, "Property"); err != nil {
		return nil, err
	}
	op := operation{action: "fetch property", resource: "Property"}
	return Guard(ctx, s.inflight, operationKey("fetchProperty", id), op.action, func(ctx context.Context) (*Property, error) {
		return s.one(ctx, request{
			method: http.MethodGet,
			path:   fmt.Sprintf("/api/properties/%s", url.PathEscape(id)),
			token:  token,
			public: true,
			op:     op,
		})
	})
}

// Create adds a listing owned by the signed-in landlord.
func (s PropertiesService) Create(ctx context.Context, token string, in PropertyInput) (*Property, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	op := operation{action: "create property", resource: "Property"}
	return Guard(ctx, s.inflight, "createProperty", op.action, func(ctx context.Context) (*Property, error) {
		return s.one(ctx, request{
			method: http.MethodPost,
			path:   "/api/landlord/properties",
			token:  token,
			body:   in,
			op:     op,
		})
	})
}

// Update replaces a landlord's listing.
func (s PropertiesService) Update(ctx context.Context, token, id string, in PropertyInput) (*Property, error) {
	if err := requireID(id, "Property"); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	op := operation{action: "update property", resource: "Property"}
	return Guard(ctx, s.inflight, operationKey("updateProperty", id), op.action, func(ctx context.Context) (*Property, error) {
		return s.one(ctx, request{
			method: http.MethodPut,
			path:   fmt.Sprintf("/api/landlord/properties/%s", url.PathEscape(id)),
			token:  token,
			body:   in,
			op:     op,
		})
	})
}

// Delete removes a landlord's listing.
func (s PropertiesService) Delete(ctx context.Context, token, id string) error {
	if err := requireID(id, "Property"); err != nil {
		return err
	}
	op := operation{action: "delete property", resource: "Property"}
	_, err := Guard(ctx, s.inflight, operationKey("deleteProperty", id), op.action, func(ctx context.Context) ([]byte, error) {
		return s.send(ctx, request{
			method: http.MethodDelete,
			path:   fmt.Sprintf("/api/landlord/properties/%s", url.PathEscape(id)),
			token:  token,
			op:     op,
		})
	})
	return err
}

func (s PropertiesService) one(ctx context.Context, req request) (*Property, error) {
	raw, err := fetchOne[rawProperty](ctx, s.Client, req)
	if err != nil {
		return nil, err
	}
	p := shapeProperty(raw)
	return &p, nil
}
