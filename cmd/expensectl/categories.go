package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"expense-tracker-client/internal/models"
)

func cmdCategories(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	sub, args := args[0], args[1:]

	switch sub {
	case "list", "ls":
		return categoriesList(ctx, a, args)
	case "get", "show":
		return categoriesGet(ctx, a, args)
	case "add", "create":
		return categoriesAdd(ctx, a, args)
	case "update", "edit":
		return categoriesUpdate(ctx, a, args)
	case "delete", "rm":
		return categoriesDelete(ctx, a, args)
	default:
		return fmt.Errorf("unknown categories command %q (want list, get, add, update or delete)", sub)
	}
}

func categoriesList(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "categories list")
	jsonFlag(a, fs)
	search := fs.String("search", "", "Search term")
	page := fs.Int("page", 0, "Page number")
	size := fs.Int("size", 0, "Page size")
	sortBy := fs.String("sort", "", "Sort field (name|createdAt)")
	dir := fs.String("dir", "", "Sort direction (asc|desc)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := models.CategoryFilter{
		SearchTerm:    *search,
		SortBy:        *sortBy,
		SortDirection: strings.ToLower(*dir),
	}
	set := setFlags(fs)
	if set["page"] {
		filter.Page = page
	}
	if set["size"] {
		filter.PageSize = size
	}

	list, err := a.categories.List(ctx, filter)
	if err != nil {
		return err
	}
	if a.json {
		return printJSON(a.stdout, list)
	}
	if len(list.Categories) == 0 {
		fmt.Fprintln(a.stdout, "No categories found")
		return nil
	}
	printCategories(a.stdout, list.Categories)
	fmt.Fprintf(a.stdout, "\n%d categories\n", list.TotalCount)
	return nil
}

func categoriesGet(ctx context.Context, a *app, args []string) error {
	id, args := splitID(args)
	fs := newFlagSet(a, "categories get")
	jsonFlag(a, fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireID(fs, id)
	if err != nil {
		return err
	}

	c, err := a.categories.Get(ctx, id)
	if err != nil {
		return err
	}
	if a.json {
		return printJSON(a.stdout, c)
	}
	printCategories(a.stdout, []models.Category{*c})
	return nil
}

func categoriesAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "categories add")
	name := fs.String("name", "", "Name")
	desc := fs.String("desc", "", "Description")
	color := fs.String("color", "", "Colour as #rrggbb")
	icon := fs.String("icon", "", "Icon name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := a.categories.Create(ctx, models.CategoryRequest{
		Name:        *name,
		Description: *desc,
		Color:       *color,
		Icon:        *icon,
	})
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	if a.json {
		return printJSON(a.stdout, c)
	}
	fmt.Fprintf(a.stdout, "Created category %s (%s)\n", c.Name, c.ID)
	return nil
}

func categoriesUpdate(ctx context.Context, a *app, args []string) error {
	id, args := splitID(args)
	fs := newFlagSet(a, "categories update")
	name := fs.String("name", "", "Name")
	desc := fs.String("desc", "", "Description")
	color := fs.String("color", "", "Colour as #rrggbb")
	icon := fs.String("icon", "", "Icon name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireID(fs, id)
	if err != nil {
		return err
	}
	set := setFlags(fs)
	if len(set) == 0 {
		return errors.New("categories update: nothing to change")
	}

	current, err := a.categories.Get(ctx, id)
	if err != nil {
		return err
	}
	req := models.CategoryRequest{
		Name:        current.Name,
		Description: current.Description,
		Color:       current.Color,
		Icon:        current.Icon,
	}
	if set["name"] {
		req.Name = *name
	}
	if set["desc"] {
		req.Description = *desc
	}
	if set["color"] {
		req.Color = *color
	}
	if set["icon"] {
		req.Icon = *icon
	}

	c, err := a.categories.Update(ctx, id, req)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if a.json {
		return printJSON(a.stdout, c)
	}
	fmt.Fprintf(a.stdout, "Updated category %s (%s)\n", c.Name, c.ID)
	return nil
}

func categoriesDelete(ctx context.Context, a *app, args []string) error {
	id, args := splitID(args)
	fs := newFlagSet(a, "categories delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := requireID(fs, id)
	if err != nil {
		return err
	}

	if err := a.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	fmt.Fprintf(a.stdout, "Deleted category %s\n", id)
	return nil
}
