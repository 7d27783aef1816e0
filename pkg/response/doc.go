// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package response extracts results from Sherpa SOAP response envelopes.

The service does not return a stable shape across operations, so results are
located by walking the parsed element tree with ordered strategies. The first
strategy that matches wins; element order in the document decides between
candidates of the same strategy.

# Locating the Body

The envelope root is matched against soap:Envelope, soap12:Envelope and
Envelope, and its body against soap:Body, soap12:Body and Body, using the
qualified tag exactly as written in the document.

# Order Numbers

AddOrderedPurchase answers with a shape such as:

	<soap:Body>
	  <AddOrderedPurchaseResponse xmlns="http://sherpa.sherpaan.nl/">
	    <AddOrderedPurchaseResult>
	      <ResponseValue>600010</ResponseValue>
	      <ResponseTime>61</ResponseTime>
	    </AddOrderedPurchaseResult>
	  </AddOrderedPurchaseResponse>
	</soap:Body>

[Document.OrderNumber] searches for ResponseValue first, then a fixed list of
alternate field names, then any numeric leaf. ResponseTime is numeric too and
is never taken for the order number.

# Security

Responses are untrusted. Documents carrying a DOCTYPE are rejected, so no
entity declarations are ever honoured.
*/
package response
