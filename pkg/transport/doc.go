// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package transport implements the HTTPS transport for Sherpa SOAP 1.2 calls.

A single HTTPSClient is created per run; its pooled connections are reused
for every call.

# Endpoint

The endpoint is derived from the configured base URL and shop ID:

	transport.EndpointURL("https://sherpaservices-prd.sherpacloud.eu", "123")
	// https://sherpaservices-prd.sherpacloud.eu/123/Sherpa.asmx

A "?wsdl" suffix is stripped and /Sherpa.asmx is appended unless the path
already ends in an .asmx segment.

# Client Usage

	client := transport.NewHTTPSClient(endpoint, &transport.HTTPSConfig{
	    Timeout: 300 * time.Second,
	    Retry:   transport.DefaultRetryPolicy(),
	})

	response, err := client.Send(ctx, "AddOrderedPurchase", envelope)

Each call sets:

	Content-Type: application/soap+xml; charset=utf-8
	SOAPAction:   "http://sherpa.sherpaan.nl/AddOrderedPurchase"

# Retry Policy

Failed calls are retried with exponential backoff: three attempts in total,
waiting 4s and then 8s (capped at 10s). By default every failure is retried,
network errors and HTTP errors alike. Setting SkipClientErrors makes 4xx
responses fail immediately.

Failures are reported as *TransportError carrying the HTTP status (zero for
network errors) and the start of the response body.

# Circuit Breaker

An optional circuit breaker wraps the retried call. Once it opens, calls fail
fast with ErrCircuitOpen until the open timeout elapses.

# TLS Configuration

TLS 1.2 is the minimum; TLS 1.3 is preferred.

# References

  - SOAP 1.2 HTTP binding: https://www.w3.org/TR/soap12-part2/#soapinhttp
  - TLS 1.3 RFC 8446: https://datatracker.ietf.org/doc/html/rfc8446
*/
package transport
