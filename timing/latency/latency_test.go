package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/psxsim/bus"
	"github.com/sarchlab/psxsim/insts"
	"github.com/sarchlab/psxsim/timing/latency"
)

var _ = Describe("Latency", func() {
	var table *latency.Table

	BeforeEach(func() {
		table = latency.NewTable()
	})

	Describe("Default Timing Values", func() {
		It("should have correct ALU latency", func() {
			Expect(table.Config().ALULatency).To(Equal(uint64(1)))
		})

		It("should have correct divide latency", func() {
			Expect(table.Config().DivideLatency).To(Equal(uint64(36)))
		})

		It("should have correct BIOS latency", func() {
			Expect(table.Config().BIOSLatency).To(Equal(uint64(24)))
		})
	})

	Describe("ALU Instruction Latencies", func() {
		It("should return 1 cycle for ADDIU", func() {
			Expect(table.GetLatency(insts.ADDIU(1, 2, 3))).To(Equal(uint64(1)))
		})

		It("should return 1 cycle for ADDU", func() {
			Expect(table.GetLatency(insts.ADDU(1, 2, 3))).To(Equal(uint64(1)))
		})

		It("should return 1 cycle for NOP", func() {
			Expect(table.GetLatency(insts.NOP())).To(Equal(uint64(1)))
		})
	})

	Describe("Multiply and Divide Latencies", func() {
		It("should return the worst case for MULT", func() {
			Expect(table.GetLatency(insts.MULT(1, 2))).To(Equal(uint64(13)))
			Expect(table.GetMinLatency(insts.MULT(1, 2))).To(Equal(uint64(6)))
			Expect(table.GetMaxLatency(insts.MULT(1, 2))).To(Equal(uint64(13)))
		})

		It("should terminate early on small operands", func() {
			mult := insts.MULT(1, 2)
			Expect(table.MultiplyLatency(mult, 0x7FF)).To(Equal(uint64(6)))
			Expect(table.MultiplyLatency(mult, 0x800)).To(Equal(uint64(9)))
			Expect(table.MultiplyLatency(mult, 0x100000)).To(Equal(uint64(13)))
		})

		It("should measure negative MULT operands by magnitude", func() {
			mult := insts.MULT(1, 2)
			multu := insts.EncodeR(insts.FnMULTU, 1, 2, 0, 0)
			Expect(table.MultiplyLatency(mult, 0xFFFFFFFF)).To(Equal(uint64(6)))
			Expect(table.MultiplyLatency(multu, 0xFFFFFFFF)).To(Equal(uint64(13)))
		})

		It("should return DivideLatency for DIV and DIVU", func() {
			Expect(table.GetLatency(insts.DIV(1, 2))).To(Equal(uint64(36)))
			Expect(table.GetLatency(insts.DIVU(1, 2))).To(Equal(uint64(36)))
		})
	})

	Describe("Instruction Type Detection", func() {
		It("should detect loads", func() {
			Expect(table.IsLoadOp(insts.LW(1, 2, 0))).To(BeTrue())
			Expect(table.IsLoadOp(insts.EncodeI(insts.OpLWR, 1, 2, 0))).To(BeTrue())
			Expect(table.IsLoadOp(insts.SW(1, 2, 0))).To(BeFalse())
		})

		It("should detect stores", func() {
			Expect(table.IsStoreOp(insts.SW(1, 2, 0))).To(BeTrue())
			Expect(table.IsStoreOp(insts.EncodeI(insts.OpSB, 1, 2, 0))).To(BeTrue())
			Expect(table.IsStoreOp(insts.LW(1, 2, 0))).To(BeFalse())
		})

		It("should detect memory operations", func() {
			Expect(table.IsMemoryOp(insts.LW(1, 2, 0))).To(BeTrue())
			Expect(table.IsMemoryOp(insts.SW(1, 2, 0))).To(BeTrue())
			Expect(table.IsMemoryOp(insts.ADDU(1, 2, 3))).To(BeFalse())
		})

		It("should detect branches and jumps", func() {
			Expect(table.IsBranchOp(insts.BEQ(1, 2, 4))).To(BeTrue())
			Expect(table.IsBranchOp(insts.J(0x1000))).To(BeTrue())
			Expect(table.IsBranchOp(insts.JR(31))).To(BeTrue())
			Expect(table.IsBranchOp(insts.EncodeI(insts.OpRegImm, 1, 0x11, 4))).To(BeTrue())
			Expect(table.IsBranchOp(insts.SYSCALL())).To(BeFalse())
		})
	})

	Describe("Region Latencies", func() {
		It("should charge the slow ROM bus for BIOS", func() {
			Expect(table.RegionLatency(bus.RangeBIOS)).To(Equal(uint64(24)))
		})

		It("should charge RAM and IO", func() {
			Expect(table.RegionLatency(bus.RangeRAM)).To(Equal(uint64(5)))
			Expect(table.RegionLatency(bus.RangeGPU)).To(Equal(uint64(3)))
			Expect(table.RegionLatency(bus.RangeScratchpad)).To(BeZero())
			Expect(table.RegionLatency(bus.RangeNone)).To(BeZero())
		})
	})

	Describe("Custom Configuration", func() {
		It("should use custom config values", func() {
			config := latency.DefaultTimingConfig()
			config.ALULatency = 2
			config.DivideLatency = 20
			config.RAMLatency = 7

			custom := latency.NewTableWithConfig(config)

			Expect(custom.GetLatency(insts.ADDU(1, 2, 3))).To(Equal(uint64(2)))
			Expect(custom.GetLatency(insts.DIV(1, 2))).To(Equal(uint64(20)))
			Expect(custom.RegionLatency(bus.RangeRAM)).To(Equal(uint64(7)))
			Expect(custom.ExceptionLatency()).To(Equal(uint64(2)))
		})
	})
})

var _ = Describe("TimingConfig", func() {
	Describe("Default Config", func() {
		It("should create valid default config", func() {
			Expect(latency.DefaultTimingConfig().Validate()).To(Succeed())
		})
	})

	Describe("Validation", func() {
		It("should reject zero ALU latency", func() {
			config := latency.DefaultTimingConfig()
			config.ALULatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero load latency", func() {
			config := latency.DefaultTimingConfig()
			config.LoadLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject zero divide latency", func() {
			config := latency.DefaultTimingConfig()
			config.DivideLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject unordered multiply latencies", func() {
			config := latency.DefaultTimingConfig()
			config.MultiplyLatencyMin = 20
			Expect(config.Validate()).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		It("should create independent copy", func() {
			original := latency.DefaultTimingConfig()
			clone := original.Clone()

			clone.ALULatency = 100

			Expect(original.ALULatency).To(Equal(uint64(1)))
			Expect(clone.ALULatency).To(Equal(uint64(100)))
		})
	})

	Describe("File Operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "latency-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load config", func() {
			original := latency.DefaultTimingConfig()
			original.ALULatency = 5
			original.BIOSLatency = 10

			path := filepath.Join(tempDir, "timing.json")
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ALULatency).To(Equal(uint64(5)))
			Expect(loaded.BIOSLatency).To(Equal(uint64(10)))
		})

		It("should return error for non-existent file", func() {
			_, err := latency.LoadConfig("/nonexistent/path/timing.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			err := os.WriteFile(path, []byte("not valid json"), 0644)
			Expect(err).NotTo(HaveOccurred())

			_, err = latency.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
