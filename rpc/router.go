package rpc

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

func (r *RpcController) NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(requestId, gin.LoggerWithFormatter(ginLogFormatter), gin.Recovery())
	router.GET("/", r.writeListOfEndpoints)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("status", r.Status)

	// execution API
	router.POST("new_transaction", r.NewTransaction)
	router.POST("deploy", r.Deploy)
	router.POST("call", r.Call)

	// query API
	router.POST("query", r.Query)
	router.GET("query_nonce", r.QueryNonce)
	router.GET("query_balance", r.QueryBalance)
	router.GET("query_receipt", r.QueryReceipt)
	router.GET("latest_receipts", r.LatestReceipts)
	router.GET("contract_abi", r.ContractABI)
	return router
}

// writes a list of available rpc endpoints as an html page
func (r *RpcController) writeListOfEndpoints(c *gin.Context) {
	routerMap := map[string]string{
		// info API
		"status": "",
		// query API
		"query_nonce":     "address",
		"query_balance":   "address",
		"query_receipt":   "hash",
		"latest_receipts": "n",
		"contract_abi":    "address",
	}
	postNames := []string{"new_transaction", "deploy", "call", "query"}
	noArgNames := []string{}
	argNames := []string{}
	for name, args := range routerMap {
		if len(args) == 0 {
			noArgNames = append(noArgNames, name)
		} else {
			argNames = append(argNames, name)
		}
	}
	sort.Strings(noArgNames)
	sort.Strings(argNames)
	buf := new(bytes.Buffer)
	buf.WriteString("<html><body>")
	buf.WriteString("<br>Available endpoints:<br>")

	for _, name := range noArgNames {
		link := fmt.Sprintf("http://%s/%s", c.Request.Host, name)
		buf.WriteString(fmt.Sprintf("<a href=\"%s\">%s</a></br>", link, link))
	}

	buf.WriteString("<br>Endpoints that require arguments:<br>")
	for _, name := range argNames {
		link := fmt.Sprintf("http://%s/%s?", c.Request.Host, name)
		argNames := strings.Split(routerMap[name], ",")
		for i, argName := range argNames {
			link += argName + "=_"
			if i < len(argNames)-1 {
				link += "&"
			}
		}
		buf.WriteString(fmt.Sprintf("<a href=\"%s\">%s</a></br>", link, link))
	}

	buf.WriteString("<br>POST endpoints (json body):<br>")
	for _, name := range postNames {
		buf.WriteString(fmt.Sprintf("http://%s/%s</br>", c.Request.Host, name))
	}
	buf.WriteString("</body></html>")
	c.Data(http.StatusOK, "text/html", buf.Bytes())
}
