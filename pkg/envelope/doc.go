// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package envelope builds the SOAP 1.2 request envelopes sent to the Sherpa
order-management service.

Two operations are supported:

	AddOrderedPurchase - creates an (empty) purchase order and returns its number
	ChangePurchase2    - attaches purchase lines to an existing purchase order

# Building Envelopes

Envelopes are built as etree documents, never by string interpolation, so
every value placed in element text is escaped on serialization:

	data, err := envelope.BuildCreateOrder(securityCode, "SUP1", "1001", "WH1")

	data, err := envelope.BuildAttachLines(securityCode, "600010", []envelope.Line{
	    {ItemCode: "ITEM1", QuantityOrdered: decimal.NewFromInt(5)},
	}, "2025-11-28T00:00:00.000")

All lines of a ChangePurchase2 request carry the same expected date; the
inbound records have no per-line date.

# Namespaces

	NsSOAP12 = "http://www.w3.org/2003/05/soap-envelope"
	NsSherpa = "http://sherpa.sherpaan.nl/"
*/
package envelope
