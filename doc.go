// Package nds decodes NitroROM cartridge images and extracts their
// contents onto the filesystem.
//
// An image packs a boot header, two processor binaries, a block of
// relocatable overlays, and a virtual filesystem into one flat blob. The
// filesystem is described by two independent tables: the directory table
// (FNT), a recursive variable-length encoding of names, and the
// allocation table (FAT), a flat array of byte ranges indexed by file ID.
// File IDs are never stored next to names; they are implied by traversal
// order, so the two tables are joined while walking the tree.
//
// Open a ROM, then either inspect the decoded view or extract it:
//
//	rom, err := nds.Open("game.nds", nds.WithVerifyChecksum())
//	if err != nil {
//		return err
//	}
//	defer rom.Close()
//
//	if err := rom.Extract("out"); err != nil {
//		var ee *nds.ExtractError
//		if errors.As(err, &ee) {
//			// best effort: everything except ee.Failures was written
//		}
//		return err
//	}
//
// Extraction fans out across workers and is best effort: one file's
// failure never stops its siblings, and the aggregate error names every
// path that could not be written.
package nds
