// Package export renders quotes as PDF documents and QR codes.
//
// A rendered PDF carries the business profile, the client block, the item
// table with GBP amounts and, when the quote is shared, a QR code pointing at
// its public link. When an Archiver is configured every export is also stored
// under exports/<user>/<quote>/<timestamp>.pdf; archive failures are logged and
// never fail the download.
package export
