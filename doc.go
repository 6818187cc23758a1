// Package printables renders typed content records (emotion cards,
// worksheets, posters, books and more) to print-ready PDF.
//
// # Quick Start
//
// Create a renderer, build a document, and close when done:
//
//	r, err := printables.NewRenderer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	pdf, err := r.BuildDocument(ctx, &printables.Poster{
//	    Title:    "Calm Corner",
//	    AssetKey: "poster",
//	}, printables.AssetMap{"poster": "https://cdn.example.com/calm.png"}, nil, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("calm-corner.pdf", pdf, 0644)
//
// # Content Kinds
//
// Content is a closed set of variants, one per kind:
//
//   - Card grids: EmotionCards, Flashcards, CardGame. A card whose asset
//     does not resolve is drawn as a placeholder.
//   - Single-image pages: Poster, FreePrompt, BoardGame, ColoringPages,
//     Certificate. An unresolved image fails the build with
//     ErrMissingRequiredAsset and no bytes.
//   - Block layouts: Worksheet, Book, BehaviorChart, VisualSchedule.
//
// DecodeResource reads the YAML/JSON form {id, name, kind, style, content}.
//
// # Geometry
//
// Card grids use fixed A4 sheets (595.28 x 841.89 pt, 36 pt margin, 12 pt
// gap) and the lookup 4 -> 2x2, 6 -> 2x3, 9 -> 3x3. ComputeCardLayout
// derives the image/text split of a card from the Style and display flags;
// Preview and Build both go through it, so the HTML preview and the PDF
// place every card identically.
//
// # Backends
//
// The native backend (default) draws with gofpdf and needs no browser.
// The chrome backend prints the HTML preview with headless Chrome via
// go-rod; use RendererPool to run several browsers in parallel:
//
//	pool := printables.NewRendererPool(printables.ResolvePoolSize(0),
//	    printables.WithBackend(printables.BackendChrome))
//	defer pool.Close()
//
// # Error Handling
//
// Errors wrap sentinels and can be checked with errors.Is:
//
//	if errors.Is(err, printables.ErrMissingRequiredAsset) {
//	    // tell the user there is no image yet
//	}
//
// See the assetstore package for versioned asset storage and the batch
// package for multi-document exports with progress and cancellation.
package printables
