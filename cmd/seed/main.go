package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/ikkim/littlelemon-backend/config"
	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	"github.com/ikkim/littlelemon-backend/internal/db"
	"github.com/ikkim/littlelemon-backend/pkg/util"
)

func main() {
	filePath := flag.String("file", "", "path to the menu spreadsheet (Category | Title | Price | Featured)")
	yes := flag.Bool("yes", false, "import without asking for confirmation")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("Usage: go run ./cmd/seed -file menu.xlsx")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	fmt.Printf("Reading XLSX file: %s\n", *filePath)
	items, skipped, err := readMenuFromXLSX(*filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	for _, s := range skipped {
		fmt.Printf("  skipped %s\n", s.Error())
	}
	fmt.Printf("Menu items to import: %d (skipped %d)\n", len(items), len(skipped))

	if !*yes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	imported, err := importMenu(
		repository.NewCategoryRepository(db.GetDB()),
		repository.NewMenuItemRepository(db.GetDB()),
		items,
	)
	if err != nil {
		log.Fatal("Import failed:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total menu items imported: %d\n", imported)
}

// importMenu creates missing categories by slug and then the menu items
func importMenu(categories repository.CategoryRepository, menuItems repository.MenuItemRepository, items []menuRow) (int, error) {
	bySlug := make(map[string]*model.Category)
	imported := 0

	for _, it := range items {
		slug := util.Slugify(it.Category)
		category, ok := bySlug[slug]
		if !ok {
			found, err := categories.FindBySlug(slug)
			switch {
			case err == nil:
				category = found
			case errors.Is(err, repository.ErrCategoryNotFound):
				category = &model.Category{Title: it.Category, Slug: slug}
				if err := categories.Create(category); err != nil {
					return imported, fmt.Errorf("row %d: create category: %w", it.Line, err)
				}
			default:
				return imported, fmt.Errorf("row %d: find category: %w", it.Line, err)
			}
			bySlug[slug] = category
		}

		menuItem := &model.MenuItem{
			Title:      it.Title,
			Price:      it.Price,
			Featured:   it.Featured,
			CategoryID: category.ID,
		}
		if err := menuItems.Create(menuItem); err != nil {
			return imported, fmt.Errorf("row %d: create menu item: %w", it.Line, err)
		}
		imported++
	}
	return imported, nil
}
