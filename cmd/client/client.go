package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"matchbook/internal/engine"
	fenrirNet "matchbook/internal/net"
)

// reportFixedHeaderLen matches the server's Report.Serialize layout:
// 1+1+1+8+8+8+2+4+16 = 49 bytes.
const reportFixedHeaderLen = 49

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "address of the exchange server")
	owner := flag.String("owner", "", "owner username (compulsory)")
	action := flag.String("action", "place", "action to perform: ['place', 'cancel', 'modify', 'log']")

	sideStr := flag.String("side", "buy", "order side: 'buy' or 'sell'")
	typeStr := flag.String("type", "limit", "order type: 'limit', 'market', 'fak', 'fok', 'gfd'")
	price := flag.Int64("price", 100, "limit price, in integer ticks")
	qtyStr := flag.String("qty", "10", "quantity or comma-separated list (e.g. 10,20,50)")

	orderID := flag.String("id", "", "order id to cancel or modify")

	flag.Parse()

	if *owner == "" {
		fmt.Println("Error: -owner is compulsory.")
		flag.Usage()
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("connected to %s as %q\n", *serverAddr, *owner)

	go readReports(conn)

	side := engine.Buy
	if strings.ToLower(*sideStr) == "sell" {
		side = engine.Sell
	}

	orderType := parseOrderType(*typeStr)

	switch strings.ToLower(*action) {
	case "place":
		quantities := parseQuantities(*qtyStr)
		for _, q := range quantities {
			if err := sendPlaceOrder(conn, *owner, orderType, engine.Price(*price), q, side); err != nil {
				log.Printf("failed to place order (qty %d): %v", q, err)
			} else {
				fmt.Printf("-> sent %s %s order: qty=%d price=%d\n", strings.ToUpper(*sideStr), *typeStr, q, *price)
			}
			time.Sleep(5 * time.Millisecond)
		}

	case "cancel":
		if *orderID == "" {
			log.Fatal("Error: -id is required for cancel")
		}
		if err := sendCancelOrder(conn, engine.OrderID(*orderID)); err != nil {
			log.Printf("failed to send cancel request: %v", err)
		} else {
			fmt.Printf("-> sent cancel request for id %s\n", *orderID)
		}

	case "modify":
		if *orderID == "" {
			log.Fatal("Error: -id is required for modify")
		}
		quantities := parseQuantities(*qtyStr)
		if len(quantities) == 0 {
			log.Fatal("Error: -qty is required for modify")
		}
		if err := sendModifyOrder(conn, engine.OrderID(*orderID), engine.Price(*price), quantities[0]); err != nil {
			log.Printf("failed to send modify request: %v", err)
		} else {
			fmt.Printf("-> sent modify request for id %s: price=%d qty=%d\n", *orderID, *price, quantities[0])
		}

	case "log":
		if err := sendLog(conn); err != nil {
			log.Printf("failed to send log request: %v", err)
		} else {
			fmt.Println("-> sent log request")
		}

	default:
		log.Fatalf("unknown action: %s", *action)
	}

	fmt.Println("\nlistening for reports... (press Ctrl+C to exit)")
	select {}
}

func parseOrderType(s string) engine.OrderType {
	switch strings.ToLower(s) {
	case "market":
		return engine.Market
	case "fak":
		return engine.FillAndKill
	case "fok":
		return engine.FillOrKill
	case "gfd":
		return engine.GoodForDay
	default:
		return engine.GoodTillCancel
	}
}

// parseQuantities splits a comma-separated string into a slice of uint64.
func parseQuantities(input string) []uint64 {
	parts := strings.Split(input, ",")
	var result []uint64
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if val, err := strconv.ParseUint(p, 10, 64); err == nil {
			result = append(result, val)
		} else {
			log.Printf("warning: invalid quantity %q, skipping", p)
		}
	}
	return result
}

func sendPlaceOrder(conn net.Conn, owner string, orderType engine.OrderType, price engine.Price, qty uint64, side engine.Side) error {
	usernameLen := len(owner)
	totalLen := fenrirNet.BaseMessageHeaderLen + fenrirNet.NewOrderMessageHeaderLen + usernameLen
	buf := make([]byte, totalLen)

	binary.BigEndian.PutUint16(buf[0:2], uint16(fenrirNet.NewOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(engine.Equities))
	binary.BigEndian.PutUint16(buf[4:6], uint16(orderType))
	binary.BigEndian.PutUint64(buf[6:14], uint64(price))
	binary.BigEndian.PutUint64(buf[14:22], qty)
	buf[22] = byte(side)
	buf[23] = uint8(usernameLen)
	copy(buf[24:], owner)

	_, err := conn.Write(buf)
	return err
}

func sendCancelOrder(conn net.Conn, id engine.OrderID) error {
	buf := make([]byte, fenrirNet.BaseMessageHeaderLen+fenrirNet.CancelOrderMessageHeaderLen)

	binary.BigEndian.PutUint16(buf[0:2], uint16(fenrirNet.CancelOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(engine.Equities))
	idBytes := make([]byte, 16)
	copy(idBytes, string(id))
	copy(buf[4:20], idBytes)

	_, err := conn.Write(buf)
	return err
}

func sendModifyOrder(conn net.Conn, id engine.OrderID, newPrice engine.Price, newQuantity uint64) error {
	buf := make([]byte, fenrirNet.BaseMessageHeaderLen+fenrirNet.ModifyOrderMessageHeaderLen)

	binary.BigEndian.PutUint16(buf[0:2], uint16(fenrirNet.ModifyOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(engine.Equities))
	idBytes := make([]byte, 16)
	copy(idBytes, string(id))
	copy(buf[4:20], idBytes)
	binary.BigEndian.PutUint64(buf[20:28], uint64(newPrice))
	binary.BigEndian.PutUint64(buf[28:36], newQuantity)

	_, err := conn.Write(buf)
	return err
}

func sendLog(conn net.Conn) error {
	buf := make([]byte, fenrirNet.BaseMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(fenrirNet.LogBook))
	_, err := conn.Write(buf)
	return err
}

// readReports continuously reads and prints Report messages from the server.
func readReports(conn net.Conn) {
	for {
		headerBuf := make([]byte, reportFixedHeaderLen)
		if _, err := io.ReadFull(conn, headerBuf); err != nil {
			if err != io.EOF {
				log.Printf("connection lost: %v", err)
			}
			os.Exit(0)
		}

		msgType := fenrirNet.ReportMessageType(headerBuf[0])
		side := engine.Side(headerBuf[2])
		qty := binary.BigEndian.Uint64(headerBuf[11:19])
		price := int64(binary.BigEndian.Uint64(headerBuf[19:27]))
		counterpartyLen := binary.BigEndian.Uint16(headerBuf[27:29])
		errStrLen := binary.BigEndian.Uint32(headerBuf[29:33])
		orderID := strings.TrimRight(string(headerBuf[33:49]), "\x00")

		totalVarLen := int(counterpartyLen) + int(errStrLen)
		var varBuf []byte
		if totalVarLen > 0 {
			varBuf = make([]byte, totalVarLen)
			if _, err := io.ReadFull(conn, varBuf); err != nil {
				log.Printf("error reading report body: %v", err)
				return
			}
		}

		errStr, counterparty := "", ""
		if errStrLen > 0 {
			errStr = string(varBuf[:errStrLen])
		}
		if counterpartyLen > 0 {
			counterparty = string(varBuf[errStrLen:])
		}

		if msgType == fenrirNet.ErrorReport {
			fmt.Printf("\n[SERVER ERROR] %s\n", errStr)
			continue
		}
		fmt.Printf("\n[EXECUTION] %s | qty=%d price=%d vs=%s id=%s\n", side, qty, price, counterparty, orderID)
	}
}
