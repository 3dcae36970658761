package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/cache"
	"github.com/rentportal/rentportal-cli/internal/outfmt"
	"github.com/rentportal/rentportal-cli/internal/resolve"
	"github.com/rentportal/rentportal-cli/internal/validation"
)

const propertiesCacheKey = "properties"

func newPropertiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "properties",
		Aliases: []string{"property", "props", "p"},
		Short:   "Browse and manage property listings",
		Long: `Browse public listings, or manage your own listings as a landlord.

Listing and viewing properties works without signing in.`,
	}

	cmd.AddCommand(newPropertiesListCmd())
	cmd.AddCommand(newPropertiesGetCmd())
	cmd.AddCommand(newPropertiesFindCmd())
	cmd.AddCommand(newPropertiesCreateCmd())
	cmd.AddCommand(newPropertiesUpdateCmd())
	cmd.AddCommand(newPropertiesDeleteCmd())

	return cmd
}

var propertyHeaders = []string{"ID", "TITLE", "CITY", "PRICE", "BEDS", "BATHS", "STATUS"}

func propertyRow(p api.Property) []string {
	return []string{
		p.ID,
		outfmt.Truncate(p.Title, 40),
		p.City,
		outfmt.FormatMoney(p.Price),
		strconv.Itoa(p.Bedrooms),
		strconv.FormatFloat(p.Bathrooms, 'f', -1, 64),
		p.Status,
	}
}

type propertyFilter struct {
	city      string
	kind      string
	minPrice  float64
	maxPrice  float64
	bedrooms  int
	available bool
}

func (pf *propertyFilter) keep(p api.Property) bool {
	if pf.city != "" && !strings.EqualFold(p.City, pf.city) {
		return false
	}
	if pf.kind != "" && !strings.EqualFold(p.PropertyType, pf.kind) {
		return false
	}
	if pf.minPrice > 0 && p.Price < pf.minPrice {
		return false
	}
	if pf.maxPrice > 0 && p.Price > pf.maxPrice {
		return false
	}
	if pf.bedrooms > 0 && p.Bedrooms < pf.bedrooms {
		return false
	}
	if pf.available && !strings.EqualFold(p.Status, "available") {
		return false
	}
	return true
}

func newPropertiesListCmd() *cobra.Command {
	var pf propertyFilter

	cmd := NewListCommand(ListConfig[api.Property]{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List property listings",
		Example: strings.TrimSpace(`
  rp properties list --city Austin --max-price 2000 --bedrooms 2
`),
		Public: true,
		Fetch: func(ctx context.Context, p *portal, token string) ([]api.Property, error) {
			props, err := p.Properties().List(ctx, token)
			if err == nil {
				_ = propertiesCache(p).Save(props)
			}
			return props, err
		},
		Filter:       pf.keep,
		Headers:      propertyHeaders,
		RowFunc:      propertyRow,
		EmptyMessage: "No properties found",
	})
	cmd.Flags().StringVar(&pf.city, "city", "", "Only listings in this city")
	cmd.Flags().StringVar(&pf.kind, "type", "", "Only this property type")
	cmd.Flags().Float64Var(&pf.minPrice, "min-price", 0, "Minimum monthly price")
	cmd.Flags().Float64Var(&pf.maxPrice, "max-price", 0, "Maximum monthly price")
	cmd.Flags().IntVar(&pf.bedrooms, "bedrooms", 0, "Minimum bedrooms")
	cmd.Flags().BoolVar(&pf.available, "available", false, "Only available listings")
	flagAlias(cmd.Flags(), "bedrooms", "beds")
	return cmd
}

func propertiesCache(p *portal) *cache.Store[[]api.Property] {
	key := cache.Key{Resource: propertiesCacheKey, BaseURL: p.BaseURL, Profile: p.settings.Profile}
	return cache.New[[]api.Property](resolveCacheDir(), key, 0)
}

// loadProperties returns the public listings, served from the local cache
// unless refresh is set.
func loadProperties(cmd *cobra.Command, p *portal, refresh bool) ([]api.Property, error) {
	store := propertiesCache(p)
	if !refresh {
		if props, ok := store.Load(); ok {
			return props, nil
		}
	}
	tok := p.optionalToken(cmdContext(cmd))
	props, err := withRetry(cmd, func(ctx context.Context) ([]api.Property, error) {
		return p.Properties().List(ctx, tok)
	})
	if err != nil {
		return nil, err
	}
	if err := store.Save(props); err != nil {
		slog.Debug("properties cache not saved", "path", store.Path(), "error", err)
	}
	return props, nil
}

// propertyCandidates makes listings searchable by title, street and city.
func propertyCandidates(props []api.Property) []resolve.Candidate {
	candidates := make([]resolve.Candidate, len(props))
	for i, p := range props {
		c := resolve.Candidate{ID: p.ID, Name: p.Title}
		if p.Address != "" && p.Address != api.NoAddress {
			c.Aliases = append(c.Aliases, p.Address)
		}
		if p.City != "" {
			c.Aliases = append(c.Aliases, p.City)
		}
		candidates[i] = c
	}
	return candidates
}

func newPropertiesGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get <id|title>",
		Aliases: []string{"show"},
		Short:   "Show a property",
		Long:    "Show a property by ID. When no property has that ID, the argument is matched against listing titles.",
		Example: strings.TrimSpace(`
  rp properties get prop_12
  rp properties get "sunny loft"
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			tok := p.optionalToken(cmdContext(cmd))
			get := func(id string) (*api.Property, error) {
				return withRetry(cmd, func(ctx context.Context) (*api.Property, error) {
					return p.Properties().Get(ctx, tok, id)
				})
			}

			var prop *api.Property
			id, idErr := validation.ValidateID(args[0], "property ID")
			if idErr == nil {
				prop, err = get(id)
			}
			if idErr != nil || api.IsNotFoundError(err) {
				props, lerr := loadProperties(cmd, p, false)
				if lerr != nil {
					return lerr
				}
				match, merr := resolve.Best(args[0], propertyCandidates(props))
				if merr != nil {
					if err != nil {
						return err
					}
					return merr
				}
				prop, err = get(match)
			}
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, prop)
			}
			renderProperty(formatter(cmd), prop)
			return nil
		}),
	}
	return cmd
}

func renderProperty(f *outfmt.Formatter, p *api.Property) {
	f.Field("Property", p.ID)
	f.Field("Title", p.Title)
	f.Field("Address", strings.TrimSuffix(p.Address+", "+p.City, ", "))
	f.Field("Price", outfmt.FormatMoney(p.Price)+"/month")
	f.Field("Type", p.PropertyType)
	f.Field("Bedrooms", strconv.Itoa(p.Bedrooms))
	f.Field("Bathrooms", strconv.FormatFloat(p.Bathrooms, 'f', -1, 64))
	if p.Area > 0 {
		f.Field("Area", strconv.FormatFloat(p.Area, 'f', -1, 64)+" sq ft")
	}
	f.Field("Status", p.Status)
	if len(p.Amenities) > 0 {
		f.Field("Amenities", strings.Join(p.Amenities, ", "))
	}
	if p.LandlordName != "" {
		f.Field("Landlord", p.LandlordName)
	}
	if p.Description != "" {
		f.Section(p.Description)
	}
}

func newPropertiesFindCmd() *cobra.Command {
	var (
		limit   int
		refresh bool
	)

	cmd := &cobra.Command{
		Use:     "find <query>",
		Aliases: []string{"search"},
		Short:   "Fuzzy search listings by title, street or city",
		Long:    "Fuzzy search listings by title, street or city. Listings are cached locally for a few minutes; use --refresh to reload.",
		Example: strings.TrimSpace(`
  rp properties find "lake view"
  rp properties find "elm st"
`),
		Args: cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if strings.TrimSpace(query) == "" {
				return resolve.ErrEmptyQuery
			}

			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			props, err := loadProperties(cmd, p, refresh)
			if err != nil {
				return err
			}
			matches := resolve.Rank(query, propertyCandidates(props), limit)

			if isJSON(cmd) {
				return printJSON(cmd, matches)
			}
			f := formatter(cmd)
			if len(matches) == 0 {
				f.Empty(fmt.Sprintf("No properties match %q", query))
				return nil
			}
			f.StartTable([]string{"ID", "TITLE", "MATCHED", "SCORE"})
			for _, m := range matches {
				f.Row(m.ID, m.Name, m.Matched, strconv.Itoa(m.Score))
			}
			return f.EndTable()
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Max results")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the local listing cache")
	return cmd
}

type propertyFlags struct {
	title, description, address, city, price, kind, status string
	bedrooms                                                int
	bathrooms, area                                         float64
	amenities                                               []string
}

func (pf *propertyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&pf.title, "title", "t", "", "Listing title")
	cmd.Flags().StringVarP(&pf.description, "description", "d", "", "Listing description")
	cmd.Flags().StringVarP(&pf.address, "address", "a", "", "Street address")
	cmd.Flags().StringVar(&pf.city, "city", "", "City")
	cmd.Flags().StringVar(&pf.price, "price", "", "Monthly rent")
	cmd.Flags().StringVar(&pf.kind, "type", "", "Property type, for example Apartment")
	cmd.Flags().StringVar(&pf.status, "status", "", "Listing status")
	cmd.Flags().IntVar(&pf.bedrooms, "bedrooms", 0, "Bedrooms")
	cmd.Flags().Float64Var(&pf.bathrooms, "bathrooms", 0, "Bathrooms")
	cmd.Flags().Float64Var(&pf.area, "area", 0, "Area in square feet")
	cmd.Flags().StringSliceVar(&pf.amenities, "amenity", nil, "Amenity (repeatable)")
	flagAlias(cmd.Flags(), "description", "desc")
	flagAlias(cmd.Flags(), "bedrooms", "beds")
	flagAlias(cmd.Flags(), "bathrooms", "baths")
}

// apply overlays the flags that were set onto in.
func (pf *propertyFlags) apply(cmd *cobra.Command, in *api.PropertyInput) error {
	changed := func(name string) bool { return flagOrAliasChanged(cmd, name) }
	if changed("title") {
		in.Title = pf.title
	}
	if changed("description") {
		in.Description = pf.description
	}
	if changed("address") {
		in.Address = pf.address
	}
	if changed("city") {
		in.City = pf.city
	}
	if changed("price") {
		price, err := validation.ParseAmount(pf.price)
		if err != nil {
			return err
		}
		in.Price = price
	}
	if changed("type") {
		in.PropertyType = pf.kind
	}
	if changed("status") {
		in.Status = pf.status
	}
	if changed("bedrooms") {
		in.Bedrooms = pf.bedrooms
	}
	if changed("bathrooms") {
		in.Bathrooms = pf.bathrooms
	}
	if changed("area") {
		in.Area = pf.area
	}
	if changed("amenity") {
		in.Amenities = pf.amenities
	}
	return nil
}

func newPropertiesCreateCmd() *cobra.Command {
	var pf propertyFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a listing (landlords)",
		Example: strings.TrimSpace(`
  rp properties create --title "Sunny loft" --address "4 Pine St" --city Austin --price 1850 --bedrooms 1
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			var in api.PropertyInput
			if err := pf.apply(cmd, &in); err != nil {
				return err
			}

			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			tok, err := p.storedToken(cmdContext(cmd))
			if err != nil {
				return err
			}
			prop, err := p.Properties().Create(cmdContext(cmd), tok, in)
			if err != nil {
				return err
			}
			_ = propertiesCache(p).Remove()
			if isJSON(cmd) {
				return printJSON(cmd, prop)
			}
			printAction(cmd, "Created", "property", prop.ID, prop.Title)
			return nil
		}),
	}

	pf.register(cmd)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("address")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newPropertiesUpdateCmd() *cobra.Command {
	var pf propertyFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a listing (landlords)",
		Long:  "Update a listing. Fields that are not given keep their current values.",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := requireArgID(args, "property ID")
			if err != nil {
				return err
			}

			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			ctx := cmdContext(cmd)
			tok, err := p.storedToken(ctx)
			if err != nil {
				return err
			}
			current, err := p.Properties().Get(ctx, tok, id)
			if err != nil {
				return err
			}
			in := api.PropertyInput{
				Title:        current.Title,
				Description:  current.Description,
				Address:      current.Address,
				City:         current.City,
				Price:        current.Price,
				Bedrooms:     current.Bedrooms,
				Bathrooms:    current.Bathrooms,
				Area:         current.Area,
				PropertyType: current.PropertyType,
				Status:       current.Status,
				Amenities:    current.Amenities,
			}
			if err := pf.apply(cmd, &in); err != nil {
				return err
			}

			prop, err := p.Properties().Update(ctx, tok, id, in)
			if err != nil {
				return err
			}
			_ = propertiesCache(p).Remove()
			if isJSON(cmd) {
				return printJSON(cmd, prop)
			}
			printAction(cmd, "Updated", "property", prop.ID, prop.Title)
			return nil
		}),
	}

	pf.register(cmd)
	return cmd
}

func newPropertiesDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete listings (landlords)",
		Args:    cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDArgs(args, "property ID")
			if err != nil {
				return err
			}
			ok, err := confirmAction(cmd, fmt.Sprintf("Delete %d propert%s?", len(ids), plural(len(ids), "y", "ies")), force)
			if err != nil || !ok {
				return err
			}

			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			tok, err := p.storedToken(cmdContext(cmd))
			if err != nil {
				return err
			}
			results := runBulkOperation(cmdContext(cmd), ids, DefaultConcurrency, bulkProgress(cmd), func(ctx context.Context, id string) (string, error) {
				return id, p.Properties().Delete(ctx, tok, id)
			})
			_ = propertiesCache(p).Remove()
			return reportBulk(cmd, "Deleted", "property", results)
		}),
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")
	return cmd
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

