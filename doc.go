// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package targetsherpaan is a Singer target that loads purchase orders into the
Sherpa inventory and order service over SOAP 1.2.

# Overview

Each purchase order record becomes a two-call transaction:

 1. AddOrderedPurchase creates the order header and returns its number
 2. ChangePurchase2 attaches the order lines to that number

The second call is only made once the order number has been extracted from
the first response. A failure between the two calls leaves an order without
lines on the service side; it is reported with the order number and not
rolled back.

# Package Structure

	github.com/sirosfoundation/target-sherpaan/pkg/envelope    - SOAP 1.2 request envelopes
	github.com/sirosfoundation/target-sherpaan/pkg/response    - Response parsing and order number extraction
	github.com/sirosfoundation/target-sherpaan/pkg/datefmt     - Expected date normalization
	github.com/sirosfoundation/target-sherpaan/pkg/transport   - HTTPS transport with retry and circuit breaker
	github.com/sirosfoundation/target-sherpaan/pkg/compression - gzip/deflate response decoding

Internal packages hold the purchase workflow, the Singer stream runner,
configuration, logging and metrics. The command lives in cmd/target-sherpaan.

# Quick Start

	target-sherpaan --config config.json < messages.jsonl

with a config such as:

	{
	  "shop_id": "123",
	  "security_code": "...",
	  "export_buyOrder_warehouse": "WH1"
	}

# Record Format

Records of the BuyOrders (or purchase_orders) stream carry:

	supplier_remoteId  -> supplierCode
	id                 -> reference
	warehouse_code     -> warehouseCode (falls back to export_buyOrder_warehouse)
	created_at         -> ExpectedDate of every line
	line_items[]       -> ChangePurchaseLine (array or JSON-encoded string)
	  product_remoteId   -> ItemCode
	  supplier_item_code -> SupplierItemCode (defaults to ItemCode)
	  quantity           -> QuantityOrdered
*/
package targetsherpaan
