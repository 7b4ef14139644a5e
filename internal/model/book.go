package model

import "time"

// Book is a catalog entry with a mutable stock counter.  Stock is the
// only field the order subsystem ever changes; everything else is
// edited through the admin catalog endpoints.  StockQuantity never
// drops below zero: decrements go through a conditional update in the
// repository and callers pre-check sufficiency.
//
// Fields:
//  ID            – primary key identifier.
//  Title         – book title.
//  Author        – author name.
//  Genre         – genre label used for catalog filtering.
//  ISBN          – international standard book number.
//  Year          – year of publication.
//  UnitPrice     – price per copy.
//  StockQuantity – copies currently on hand.
//  Description   – free-text description for the catalog.
//  ImageRef      – reference to a cover image (URL or upload path).
//  CreatedAt     – when the book was added to the catalog.
type Book struct {
    ID            uint64    // books.id
    Title         string    // books.title
    Author        string    // books.author
    Genre         string    // books.genre
    ISBN          string    // books.isbn
    Year          int       // books.year
    UnitPrice     float64   // books.unit_price
    StockQuantity int       // books.stock_quantity
    Description   string    // books.description
    ImageRef      string    // books.image_ref
    CreatedAt     time.Time // books.created_at
}
