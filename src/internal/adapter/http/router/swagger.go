package router

import (
	"fmt"
	"net/http"
)

func registerSwaggerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/", http.StatusMovedPermanently)
	})

	mux.HandleFunc("/swagger/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, swaggerHTML, "/swagger/openapi.json")
	})

	mux.HandleFunc("/swagger/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(openAPI))
	})
}

const swaggerHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Bank Ledger API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      window.ui = SwaggerUIBundle({
        url: "%s",
        dom_id: "#swagger-ui"
      });
    };
  </script>
</body>
</html>`

const openAPI = `{
  "openapi": "3.0.3",
  "info": {
    "title": "Bank Ledger API",
    "version": "1.0.0"
  },
  "paths": {
    "/transactions/deposit": {
      "post": {
        "summary": "Deposit into an account",
        "security": [{"BasicAuth": []}],
        "requestBody": {
          "required": true,
          "content": {"application/json": {"schema": {"$ref": "#/components/schemas/DepositRequest"}}}
        },
        "responses": {
          "201": {"description": "Transaction recorded", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/TransactionEnvelope"}}}},
          "400": {"$ref": "#/components/responses/MovementError"},
          "404": {"$ref": "#/components/responses/MovementError"},
          "409": {"$ref": "#/components/responses/MovementError"},
          "500": {"$ref": "#/components/responses/MovementError"},
          "503": {"$ref": "#/components/responses/MovementError"}
        }
      }
    },
    "/transactions/withdraw": {
      "post": {
        "summary": "Withdraw from an account after PIN validation",
        "security": [{"BasicAuth": []}],
        "requestBody": {
          "required": true,
          "content": {"application/json": {"schema": {"$ref": "#/components/schemas/WithdrawRequest"}}}
        },
        "responses": {
          "201": {"description": "Transaction recorded", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/TransactionEnvelope"}}}},
          "400": {"$ref": "#/components/responses/MovementError"},
          "401": {"$ref": "#/components/responses/MovementError"},
          "404": {"$ref": "#/components/responses/MovementError"},
          "409": {"$ref": "#/components/responses/MovementError"},
          "422": {"$ref": "#/components/responses/MovementError"},
          "500": {"$ref": "#/components/responses/MovementError"},
          "503": {"$ref": "#/components/responses/MovementError"}
        }
      }
    },
    "/transactions/transfer": {
      "post": {
        "summary": "Transfer between two accounts by id",
        "security": [{"BasicAuth": []}],
        "requestBody": {
          "required": true,
          "content": {"application/json": {"schema": {"$ref": "#/components/schemas/TransferRequest"}}}
        },
        "responses": {
          "201": {"description": "Transaction recorded", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/TransactionEnvelope"}}}},
          "400": {"$ref": "#/components/responses/MovementError"},
          "404": {"$ref": "#/components/responses/MovementError"},
          "409": {"$ref": "#/components/responses/MovementError"},
          "422": {"$ref": "#/components/responses/MovementError"},
          "500": {"$ref": "#/components/responses/MovementError"},
          "503": {"$ref": "#/components/responses/MovementError"}
        }
      }
    },
    "/transactions/transfer-by-account-number": {
      "post": {
        "summary": "Transfer to an account number after PIN validation",
        "security": [{"BasicAuth": []}],
        "requestBody": {
          "required": true,
          "content": {"application/json": {"schema": {"$ref": "#/components/schemas/TransferByAccountNumberRequest"}}}
        },
        "responses": {
          "201": {"description": "Transaction recorded", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/TransactionEnvelope"}}}},
          "400": {"$ref": "#/components/responses/MovementError"},
          "401": {"$ref": "#/components/responses/MovementError"},
          "404": {"$ref": "#/components/responses/MovementError"},
          "409": {"$ref": "#/components/responses/MovementError"},
          "422": {"$ref": "#/components/responses/MovementError"},
          "500": {"$ref": "#/components/responses/MovementError"},
          "503": {"$ref": "#/components/responses/MovementError"}
        }
      }
    },
    "/transactions/account/{accountId}": {
      "get": {
        "summary": "List transactions involving an account, oldest first",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "accountId", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": {
          "200": {"description": "Transactions fetched"},
          "401": {"description": "Unauthorized"},
          "503": {"$ref": "#/components/responses/MovementError"}
        }
      }
    },
    "/accounts/{id}": {
      "get": {
        "summary": "Get account by id",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "Account fetched"}, "404": {"description": "Record not found"}}
      }
    },
    "/accounts/number/{accountNumber}": {
      "get": {
        "summary": "Get account by account number",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "accountNumber", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "Account fetched"}, "404": {"description": "Record not found"}}
      }
    },
    "/accounts/{id}/credit": {
      "post": {
        "summary": "Atomically credit an account",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/BalanceMutationRequest"}}}},
        "responses": {"200": {"description": "Balance updated"}, "404": {"description": "Record not found"}, "409": {"description": "Account not active or idempotency conflict"}}
      }
    },
    "/accounts/{id}/debit": {
      "post": {
        "summary": "Atomically debit an account",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}],
        "requestBody": {"required": true, "content": {"application/json": {"schema": {"$ref": "#/components/schemas/BalanceMutationRequest"}}}},
        "responses": {"200": {"description": "Balance updated"}, "404": {"description": "Record not found"}, "409": {"description": "Account not active or idempotency conflict"}, "422": {"description": "Insufficient balance"}}
      }
    },
    "/accounts/mutations/{key}": {
      "get": {
        "summary": "Look up an applied mutation by idempotency key",
        "security": [{"BasicAuth": []}],
        "parameters": [{"name": "key", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "Mutation fetched"}, "404": {"description": "Record not found"}}
      }
    },
    "/auth/validate-pin": {
      "post": {
        "summary": "Validate a transaction PIN",
        "security": [{"BasicAuth": []}],
        "requestBody": {
          "required": true,
          "content": {"application/json": {"schema": {"type": "object", "required": ["username", "pin"], "properties": {"username": {"type": "string"}, "pin": {"type": "string"}}}}}
        },
        "responses": {"200": {"description": "PIN valid"}, "401": {"description": "Invalid PIN"}, "404": {"description": "User not found"}}
      }
    },
    "/reconciliation-cases": {
      "get": {
        "summary": "List recorded reconciliation cases",
        "security": [{"BasicAuth": []}],
        "responses": {"200": {"description": "Cases fetched"}}
      }
    },
    "/health": {
      "get": {
        "summary": "Health check",
        "responses": {"200": {"description": "Service is up"}}
      }
    }
  },
  "components": {
    "securitySchemes": {
      "BasicAuth": {"type": "http", "scheme": "basic"}
    },
    "responses": {
      "MovementError": {
        "description": "Money movement failed",
        "content": {"application/json": {"schema": {"$ref": "#/components/schemas/MovementError"}}}
      }
    },
    "schemas": {
      "DepositRequest": {
        "type": "object",
        "required": ["accountId", "amount"],
        "properties": {
          "accountId": {"type": "string"},
          "amount": {"type": "string", "example": "250.00"},
          "description": {"type": "string"}
        }
      },
      "WithdrawRequest": {
        "type": "object",
        "required": ["accountId", "amount", "username", "pin"],
        "properties": {
          "accountId": {"type": "string"},
          "amount": {"type": "string"},
          "username": {"type": "string"},
          "pin": {"type": "string"},
          "description": {"type": "string"}
        }
      },
      "TransferRequest": {
        "type": "object",
        "required": ["fromAccountId", "toAccountId", "amount"],
        "properties": {
          "fromAccountId": {"type": "string"},
          "toAccountId": {"type": "string"},
          "amount": {"type": "string"},
          "description": {"type": "string"}
        }
      },
      "TransferByAccountNumberRequest": {
        "type": "object",
        "required": ["fromAccountId", "toAccountNumber", "amount", "username", "pin"],
        "properties": {
          "fromAccountId": {"type": "string"},
          "toAccountNumber": {"type": "string"},
          "amount": {"type": "string"},
          "username": {"type": "string"},
          "pin": {"type": "string"},
          "description": {"type": "string"}
        }
      },
      "BalanceMutationRequest": {
        "type": "object",
        "required": ["amount", "idempotencyKey"],
        "properties": {
          "amount": {"type": "string"},
          "idempotencyKey": {"type": "string"}
        }
      },
      "Transaction": {
        "type": "object",
        "properties": {
          "id": {"type": "integer", "format": "int64"},
          "reference": {"type": "string"},
          "fromAccountId": {"type": "string", "nullable": true},
          "toAccountId": {"type": "string", "nullable": true},
          "amount": {"type": "string"},
          "type": {"type": "string", "enum": ["DEPOSIT", "WITHDRAW", "TRANSFER"]},
          "timestamp": {"type": "string", "format": "date-time"},
          "description": {"type": "string"},
          "checksum": {"type": "string"}
        }
      },
      "TransactionEnvelope": {
        "type": "object",
        "properties": {
          "success": {"type": "boolean"},
          "message": {"type": "string"},
          "data": {"$ref": "#/components/schemas/Transaction"}
        }
      },
      "MovementError": {
        "type": "object",
        "properties": {
          "success": {"type": "boolean"},
          "message": {"type": "string"},
          "kind": {"type": "string"},
          "retryable": {"type": "boolean"},
          "reconciliation": {
            "type": "object",
            "properties": {
              "reference": {"type": "string"},
              "sourceAccountId": {"type": "string"},
              "destinationAccountId": {"type": "string"},
              "amount": {"type": "string"},
              "compensated": {"type": "boolean"}
            }
          }
        }
      }
    }
  }
}`
