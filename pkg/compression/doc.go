// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package compression decodes HTTP content-encoded SOAP responses.

Requests to the Sherpa service advertise gzip and deflate support, so
responses may arrive compressed. The transport hands the raw body and its
Content-Encoding header to a Compressor:

	compressor := compression.NewCompressor()
	body, err := compressor.Decompress(raw, resp.Header.Get("Content-Encoding"))

Supported encodings:
  - gzip (RFC 1952), also accepted as x-gzip
  - deflate (zlib stream per RFC 1950, raw RFC 1951 data is tolerated)
  - identity or no header: data is returned unchanged

Decompressed output is capped (see [WithMaxSize]) since responses are
untrusted.

# References

  - HTTP Content-Encoding: https://www.rfc-editor.org/rfc/rfc9110#name-content-encoding
  - GZIP RFC 1952: https://datatracker.ietf.org/doc/html/rfc1952
  - ZLIB RFC 1950: https://datatracker.ietf.org/doc/html/rfc1950
*/
package compression
