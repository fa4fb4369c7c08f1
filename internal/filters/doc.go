// Package filters implements the PDF stream decoding filters.
//
// Each filter takes the encoded bytes and a Params map built from the
// stream's /DecodeParms dictionary:
//
//	decoded, err := filters.Decode("FlateDecode", data, filters.Params{
//	    "Predictor": 12,
//	    "Columns":   100,
//	})
//
// Supported filters are FlateDecode, LZWDecode, ASCIIHexDecode,
// ASCII85Decode, RunLengthDecode and CCITTFaxDecode. FlateDecode and
// LZWDecode accept the TIFF (2) and PNG (10-15) predictors. Image
// payload filters (DCTDecode, JPXDecode) are not decoded here; callers
// check IsImageFilter and hand those bytes to an image decoder.
package filters
